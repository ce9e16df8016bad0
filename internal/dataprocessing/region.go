package dataprocessing

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Region labels that are not place names
const (
	RegionNotSpecified = "Не указано"
	RegionOther        = "Другой"
)

// LabelUnknown fills derived text fields whose source is missing
const LabelUnknown = "Неизвестно"

type knownCity struct {
	name     string
	variants []string
}

// knownCities is searched in order; the first city with a variant contained in
// the lower-cased text wins.
var knownCities = []knownCity{
	{"Москва", []string{"москва", "мск", "moscow"}},
	{"Санкт-Петербург", []string{"санкт-петербург", "спб", "питер", "st. petersburg", "petersburg"}},
	{"Новосибирск", []string{"новосибирск", "новосиб"}},
	{"Екатеринбург", []string{"екатеринбург", "екб"}},
	{"Казань", []string{"казань", "kazan"}},
	{"Краснодар", []string{"краснодар"}},
	{"Пермь", []string{"пермь", "perm"}},
	{"Ростов-на-Дону", []string{"ростов-на-дону", "ростов"}},
	{"Тюмень", []string{"тюмень"}},
	{"Барнаул", []string{"барнаул"}},
	{"Красноярск", []string{"красноярск"}},
	{"Владивосток", []string{"владивосток", "vladivostok"}},
	{"Самара", []string{"самара", "samara"}},
	{"Минск", []string{"минск", "minsk"}},
	{"Бишкек", []string{"бишкек", "bishkek"}},
	{"Астана", []string{"астана", "astana"}},
	{"Сочи", []string{"сочи", "sochi"}},
	{"Ярославль", []string{"ярославль"}},
	{"Воронеж", []string{"воронеж"}},
	{"Иркутск", []string{"иркутск"}},
	{"Хабаровск", []string{"хабаровск"}},
	{"Ставрополь", []string{"ставрополь"}},
	{"Челябинск", []string{"челябинск"}},
	{"Новороссийск", []string{"новороссийск"}},
	{"Томск", []string{"томск"}},
	{"Киев", []string{"киев", "kyiv"}},
	{"Ташкент", []string{"ташкент", "tashkent"}},
	{"Ереван", []string{"ереван", "yerevan"}},
	{"Баку", []string{"баку", "baku"}},
	{"Алматы", []string{"алматы", "almaty"}},
}

// regionStopWords rule out a candidate containing any of them (upper-cased):
// legal forms, business words, address words and agency brand names.
var regionStopWords = upperAll([]string{
	"ИП", "ТРЕВЕЛ", "ГРУПП", "ТУР", "ВОЯЖ", "КОРАЛ", "АНЕКС", "PAC", "ПАК",
	"TRAVEL", "GROUP", "ООО", "ЗАО", "АО", "LTD", "CORP", "COMPANY", "CLUB",
	"м.", "ул.", "пр.", "бульвар", "проспект", "улица", "ЦЕНТР", "ОФИС", "ОТДЕЛ",
	"ФИЛИАЛ", "АГЕНТСТВО", "БЮРО", "СЕТЬ", "КОМПАНИЯ", "EXPERT", "EXPERTS",
	"WORLD", "INTERNATIONAL", "SERVICE", "SERVICES", "КРУКЛАБ", "АЛЛИНТРЭВЕЛ",
	"ГЕРМЕС", "САНЭКСПРЕСС-ГП", "МА МИЛЬЯНА", "КРУГОЗОР", "ПРАЙМ", "ЭДЕМ-СЕРВИС",
	"БУТИК ПУТЕШЕСТВИЙ", "АП АРФА", "КРАСКИ МИРА", "БОНЖУР", "МЕРИДИАН",
	"ДИРЕКТОРИУМ", "РЕГИОН", "ВОЛГА", "СИБИРЬ", "УРАЛ", "ДАЛЬНИЙ ВОСТОК",
})

// regionCommonWords are tourism words that never name a place
var regionCommonWords = []string{"ТУРИЗМ", "ОТДЫХ", "ПУТЕШЕСТВИЙ", "ТУРОВ", "ВОЯЖ", "ТРЕВЕЛ"}

// regionSentinels are placeholder values meaning no data
var regionSentinels = map[string]struct{}{
	"n/a":  {},
	"nan":  {},
	"none": {},
}

var (
	regionNamePattern = regexp.MustCompile(`^[А-ЯЁа-яёA-Za-z\- ]+$`)
	regionSeparators  = regexp.MustCompile(`[,;]`)
)

// ExtractRegion derives a region label from a free-text agency or country value.
// A known city anywhere in the text wins. Otherwise the last of two or more
// comma or semicolon separated parts is taken when it looks like a place name.
// Empty and placeholder text is RegionNotSpecified; anything else is RegionOther.
func ExtractRegion(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || text == RegionNotSpecified {
		return RegionNotSpecified
	}

	lower := strings.ToLower(text)
	if _, ok := regionSentinels[lower]; ok {
		return RegionNotSpecified
	}

	for _, city := range knownCities {
		for _, variant := range city.variants {
			if strings.Contains(lower, variant) {
				return city.name
			}
		}
	}

	var parts []string
	for _, p := range regionSeparators.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return RegionOther
	}

	if candidate := parts[len(parts)-1]; isPlaceName(candidate) {
		return candidate
	}
	return RegionOther
}

func isPlaceName(s string) bool {
	upper := strings.ToUpper(s)
	if containsAny(upper, regionStopWords) {
		return false
	}
	if utf8.RuneCountInString(s) < 3 || allDigits(s) {
		return false
	}
	if !regionNamePattern.MatchString(s) {
		return false
	}
	return !containsAny(upper, regionCommonWords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func upperAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToUpper(w)
	}
	return out
}
