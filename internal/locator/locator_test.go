package locator

import (
	"errors"
	"testing"

	"github.com/price-standard/price-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textRow(values ...string) types.Row {
	cells := make([]types.Cell, len(values))
	for i, v := range values {
		cells[i] = types.Text(v)
	}
	return types.Row{Cells: cells}
}

func priceListRows() []types.Row {
	return []types.Row{
		textRow("Прайс-лист ООО \"Альт\""),
		textRow("Параметры: склад основной"),
		textRow(),
		textRow("Код товара", "Качество", "Номенклатура", "Спец.цены Акция", "Розничная цена"),
		textRow("12345", "", "Эмаль К2", "", "1000"),
	}
}

func TestLocateStrict(t *testing.T) {
	loc, err := New(DefaultKeywords(), PolicyStrict, 0).Locate(priceListRows())
	require.NoError(t, err)

	assert.Equal(t, 3, loc.HeaderRow)

	expected := map[types.Role]int{
		types.RoleCode:         0,
		types.RoleStatus:       1,
		types.RoleName:         2,
		types.RoleSpecialPrice: 3,
		types.RoleRetailPrice:  4,
	}
	for role, col := range expected {
		got, ok := loc.Columns.Index(role)
		assert.True(t, ok, "role %s", role)
		assert.Equal(t, col, got, "role %s", role)
	}
}

func TestLocateStrictRequiresBothKeywords(t *testing.T) {
	rows := []types.Row{
		textRow("Код", "Цена"),
		textRow("1234", "100"),
	}

	_, err := New(DefaultKeywords(), PolicyStrict, 0).Locate(rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrStructure))
}

func TestLocateGeneric(t *testing.T) {
	rows := []types.Row{
		textRow("Отчет"),
		textRow("Артикул", "Цена"),
		textRow("1234", "100"),
	}

	loc, err := New(DefaultKeywords(), PolicyGeneric, 0).Locate(rows)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.HeaderRow)

	col, ok := loc.Columns.Index(types.RoleCode)
	assert.True(t, ok)
	assert.Equal(t, 0, col)
	col, ok = loc.Columns.Index(types.RoleRetailPrice)
	assert.True(t, ok)
	assert.Equal(t, 1, col)
}

func TestLocateGenericFallsBackToFirstRow(t *testing.T) {
	rows := []types.Row{
		textRow("Остатки"),
		textRow("Цена", "Цена"),
	}

	_, err := New(DefaultKeywords(), PolicyGeneric, 0).Locate(rows)
	require.Error(t, err, "row 0 is used and maps fewer than two roles")

	var se *types.StructureError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 0, se.HeaderRow)
}

func TestLocateRespectsScanLimit(t *testing.T) {
	rows := make([]types.Row, 0, 20)
	for i := 0; i < 16; i++ {
		rows = append(rows, textRow("строка"))
	}
	rows = append(rows, textRow("Код товара", "Номенклатура"))

	_, err := New(DefaultKeywords(), PolicyStrict, 0).Locate(rows)
	assert.True(t, errors.Is(err, types.ErrStructure))

	loc, err := New(DefaultKeywords(), PolicyStrict, 20).Locate(rows)
	require.NoError(t, err)
	assert.Equal(t, 16, loc.HeaderRow)
}

func TestLocateEmptySheet(t *testing.T) {
	_, err := New(DefaultKeywords(), PolicyStrict, 0).Locate(nil)
	assert.True(t, errors.Is(err, types.ErrStructure))
}

func TestMapColumnsFirstOccurrenceWins(t *testing.T) {
	l := New(DefaultKeywords(), PolicyStrict, 0)

	cm := l.MapColumns(textRow("Код товара", "Код поставщика", "Номенклатура", "Цена", "Цена опт"))

	col, _ := cm.Index(types.RoleCode)
	assert.Equal(t, 0, col)
	col, _ = cm.Index(types.RoleRetailPrice)
	assert.Equal(t, 3, col)
	assert.Equal(t, 3, cm.Len())
}

func TestMapColumnsFirstRuleWinsPerCell(t *testing.T) {
	l := New(DefaultKeywords(), PolicyStrict, 0)

	// "Код товара" mentions both code and name keywords; code is tried first
	cm := l.MapColumns(textRow("Код товара", "Товар"))

	col, _ := cm.Index(types.RoleCode)
	assert.Equal(t, 0, col)
	col, ok := cm.Index(types.RoleName)
	assert.True(t, ok)
	assert.Equal(t, 1, col)
}

func TestMapColumnsIgnoresNumbers(t *testing.T) {
	l := New(DefaultKeywords(), PolicyStrict, 0)
	row := types.Row{Cells: []types.Cell{types.Number(1), types.Text("Номенклатура")}}
	assert.Equal(t, 1, l.MapColumns(row).Len())
}
