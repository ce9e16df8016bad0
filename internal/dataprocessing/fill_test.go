package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cruisepulse/pkg/contracts/domain"
)

func TestFillBuyerNames(t *testing.T) {
	input := domain.NewTable(
		[]string{domain.FieldBuyerDepartment, domain.FieldBuyerName},
		[][]string{
			{ClientHall, ""},
			{"ОТДЕЛ ПРОДАЖ", ""},
			{ClientHall, "ИП Иванов"},
			{"", ""},
		},
	)

	out, counts := FillBuyerNames(input)

	assert.Equal(t, FillCounts{ClientHall: 1, Unspecified: 2}, counts)
	assert.Equal(t, ClientHall, out.Rows[0][1])
	assert.Equal(t, BuyerUnspecified, out.Rows[1][1])
	assert.Equal(t, "ИП Иванов", out.Rows[2][1])
	assert.Equal(t, BuyerUnspecified, out.Rows[3][1])
	assert.Equal(t, "", input.Rows[0][1], "input not modified")
}

func TestFillBuyerNames_MissingColumn(t *testing.T) {
	input := domain.NewTable([]string{domain.FieldBuyerName}, [][]string{{""}})
	out, counts := FillBuyerNames(input)

	assert.Equal(t, FillCounts{}, counts)
	assert.Equal(t, "", out.Rows[0][0])
}
