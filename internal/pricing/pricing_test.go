package pricing

import (
	"testing"

	"github.com/price-standard/price-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = types.NewColumnMap(map[types.Role]int{
	types.RoleCode:         0,
	types.RoleStatus:       1,
	types.RoleName:         2,
	types.RoleSpecialPrice: 3,
	types.RoleRetailPrice:  4,
})

func product(status, name string, special, retail types.Cell) types.Row {
	return types.Row{
		Source: 1,
		Cells:  []types.Cell{types.Text("12345"), types.Text(status), types.Text(name), special, retail},
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"1000", 1000, false},
		{"1 234,50", 1234.5, false},
		{"1\u00a0234,50", 1234.5, false},
		{"1.234,50", 1234.5, false},
		{"1,234.50", 1234.5, false},
		{"250 руб.", 250, false},
		{"99,9 ₽", 99.9, false},
		{"1,5", 1.5, false},
		{"", 0, true},
		{"руб.", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCellAmount(t *testing.T) {
	assert.Equal(t, 150.0, CellAmount(types.Number(150)))
	assert.Equal(t, 1000.0, CellAmount(types.Text("1 000")))
	assert.Zero(t, CellAmount(types.Text("по запросу")))
	assert.Zero(t, CellAmount(types.Cell{}))
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{2.5, 3},
		{-2.5, -3},
		{1000 * 0.7, 700},
		{2.4, 2},
		{0.5, 1},
		{-0.4, 0},
		{2.675, 3},
		{149.5, 150},
		{599.4, 599},
		{0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundHalfUp(tt.in), "RoundHalfUp(%v)", tt.in)
	}
}

func TestDiscounted(t *testing.T) {
	assert.Equal(t, int64(700), Discounted(1000, 30))
	assert.Equal(t, int64(599), Discounted(999, 40))
	assert.Equal(t, int64(875), Discounted(1250, 30))
	assert.Equal(t, int64(1000), Discounted(1000, 0))
	assert.Equal(t, int64(0), Discounted(1000, 100))
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(DefaultStatusRules())

	tests := []struct {
		in   string
		want string
	}{
		{"Новинка", ""},
		{"новый", ""},
		{"NEW", ""},
		{"Ограничено годен", types.SaleStatus},
		{"  брак ", types.SaleStatus},
		{"Уценка", types.SaleStatus},
		{"Sale", types.SaleStatus},
		{"акция недели", types.SaleStatus},
		{types.SaleStatus, types.SaleStatus},
		{"Под заказ", "Под заказ"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			once := n.Normalize(tt.in)
			assert.Equal(t, tt.want, once)
			assert.Equal(t, once, n.Normalize(once))
		})
	}
}

func TestNormalizeNeverDemotesSale(t *testing.T) {
	// This rule would otherwise match the label itself
	n := NewNormalizer(StatusRules{{Key: "распрод", Value: ""}})
	assert.Equal(t, types.SaleStatus, n.Normalize(types.SaleStatus))
}

func TestNormalizerApply(t *testing.T) {
	n := NewNormalizer(DefaultStatusRules())
	input := []types.Row{
		product("Новинка", "Грунт", types.Cell{}, types.Number(100)),
		product("Ограничено годен", "Эмаль", types.Cell{}, types.Number(200)),
		product("", "Кисть", types.Cell{}, types.Number(50)),
	}

	out := n.Apply(input, testColumns)

	require.Len(t, out, 3)
	assert.True(t, out[0].Cell(1).IsEmpty())
	assert.Equal(t, types.SaleStatus, out[1].Cell(1).String())
	assert.True(t, out[2].Cell(1).IsEmpty())

	assert.Equal(t, "Новинка", input[0].Cell(1).String())
	assert.Equal(t, "Ограничено годен", input[1].Cell(1).String())
}

func TestMarkersPriority(t *testing.T) {
	markers := DefaultMarkers()

	tests := []struct {
		text  string
		want  string
		found bool
	}{
		{"Краска К3 К2", "К2", true},
		{"Эмаль к3", "К3", true},
		{"Лак К4", "К4", true},
		{"Грунт K2", "", false},
		{"Кисть", "", false},
	}

	for _, tt := range tests {
		got, found := markers.Detect(tt.text)
		assert.Equal(t, tt.found, found, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func newCalculator(t *testing.T, recalc bool) *Calculator {
	t.Helper()
	c, err := NewCalculator(DefaultMarkers(), types.DefaultDiscountSettings(), recalc)
	require.NoError(t, err)
	return c
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		recalc      bool
		row         types.Row
		wantSpecial types.Cell
		wantStatus  string
		wantRule    types.Rule
		wantFired   bool
	}{
		{
			name:        "k2 computes special price",
			row:         product("", "Эмаль ПФ-115 К2", types.Cell{}, types.Number(1000)),
			wantSpecial: types.Number(700),
			wantStatus:  types.SaleStatus,
			wantRule:    types.RuleDiscountComputed,
			wantFired:   true,
		},
		{
			name:        "k2 wins over k3",
			row:         product("", "Краска К3 К2", types.Cell{}, types.Number(1000)),
			wantSpecial: types.Number(700),
			wantStatus:  types.SaleStatus,
			wantRule:    types.RuleDiscountComputed,
			wantFired:   true,
		},
		{
			name:        "k3 applies forty percent",
			row:         product("", "Лак к3", types.Cell{}, types.Text("1 000,00")),
			wantSpecial: types.Number(600),
			wantStatus:  types.SaleStatus,
			wantRule:    types.RuleDiscountComputed,
			wantFired:   true,
		},
		{
			name:        "k4 keeps existing special",
			row:         product("", "Грунт К4", types.Number(150), types.Number(300)),
			wantSpecial: types.Number(150),
			wantStatus:  types.SaleStatus,
			wantRule:    types.RuleK4ForcedSale,
			wantFired:   true,
		},
		{
			name:        "k4 without special stays without",
			row:         product("", "Грунт К4", types.Cell{}, types.Number(300)),
			wantSpecial: types.Cell{},
			wantStatus:  types.SaleStatus,
			wantRule:    types.RuleK4ForcedSale,
			wantFired:   true,
		},
		{
			name:        "existing special kept without recalc",
			row:         product("", "Эмаль К2", types.Number(800), types.Number(1000)),
			wantSpecial: types.Number(800),
			wantStatus:  "",
			wantRule:    types.RuleKeptExistingSpecial,
			wantFired:   true,
		},
		{
			name:        "existing special recalculated",
			recalc:      true,
			row:         product("", "Эмаль К2", types.Number(800), types.Number(1000)),
			wantSpecial: types.Number(700),
			wantStatus:  types.SaleStatus,
			wantRule:    types.RuleDiscountComputed,
			wantFired:   true,
		},
		{
			name:        "marker without retail writes nothing",
			row:         product("", "Эмаль К2", types.Cell{}, types.Cell{}),
			wantSpecial: types.Cell{},
			wantStatus:  "",
			wantFired:   false,
		},
		{
			name:        "no marker plain retail",
			row:         product("Под заказ", "Кисть", types.Cell{}, types.Number(50)),
			wantSpecial: types.Cell{},
			wantStatus:  "Под заказ",
			wantRule:    types.RulePlainRetail,
			wantFired:   true,
		},
		{
			name:        "marker in status text",
			row:         product("К2", "Кисть", types.Cell{}, types.Number(50)),
			wantSpecial: types.Number(35),
			wantStatus:  types.SaleStatus,
			wantRule:    types.RuleDiscountComputed,
			wantFired:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCalculator(t, tt.recalc)

			got := c.Calculate(tt.row, testColumns)

			assert.Equal(t, tt.wantSpecial, got.Row.Cell(3))
			assert.Equal(t, tt.wantStatus, got.Row.Cell(1).String())
			assert.Equal(t, tt.wantFired, got.Fired)
			if tt.wantFired {
				assert.Equal(t, tt.wantRule, got.Rule)
			}
		})
	}
}

func TestCalculateMarkerMissingFromSettings(t *testing.T) {
	c, err := NewCalculator(DefaultMarkers(), types.DiscountSettings{"К2": 30}, false)
	require.NoError(t, err)

	got := c.Calculate(product("", "Эмаль К3", types.Cell{}, types.Number(1000)), testColumns)

	assert.True(t, got.Row.Cell(3).IsEmpty())
	assert.Empty(t, got.Row.Cell(1).String())
	assert.Equal(t, "К3", got.Marker)
	assert.Equal(t, types.RulePlainRetail, got.Rule)
}

func TestNewCalculatorSettings(t *testing.T) {
	c, err := NewCalculator(DefaultMarkers(), types.DiscountSettings{"к2": 10}, false)
	require.NoError(t, err)
	got := c.Calculate(product("", "Эмаль К2", types.Cell{}, types.Number(1000)), testColumns)
	assert.Equal(t, types.Number(900), got.Row.Cell(3))

	_, err = NewCalculator(DefaultMarkers(), types.DiscountSettings{"К2": 120}, false)
	assert.ErrorIs(t, err, types.ErrInvalidSettings)
}

func TestTransform(t *testing.T) {
	n := NewNormalizer(DefaultStatusRules())
	c := newCalculator(t, false)

	rows := []types.Row{
		product("Новинка", "Эмаль К2", types.Cell{}, types.Number(1000)),
		product("Ограничено годен", "Грунт", types.Cell{}, types.Number(200)),
		product("", "Лак К4", types.Number(150), types.Number(300)),
		product("", "Кисть", types.Number(40), types.Number(50)),
		product("", "Валик", types.Cell{}, types.Number(80)),
	}

	out, stats := Transform(rows, testColumns, n, c)

	require.Len(t, out, 5)
	assert.Equal(t, types.Number(700), out[0].Cell(3))
	assert.Equal(t, types.SaleStatus, out[0].Cell(1).String())
	assert.Equal(t, types.SaleStatus, out[1].Cell(1).String())
	assert.Equal(t, types.Number(150), out[2].Cell(3))

	assert.Equal(t, 5, stats.RowsProcessed)
	assert.Equal(t, 3, stats.RowsWithSale)
	assert.Equal(t, 1, stats.PerRule[types.RuleDiscountComputed])
	assert.Equal(t, 1, stats.PerRule[types.RuleK4ForcedSale])
	assert.Equal(t, 1, stats.PerRule[types.RuleKeptExistingSpecial])
	assert.Equal(t, 2, stats.PerRule[types.RulePlainRetail])

	// Input rows are not rewritten
	assert.Equal(t, "Новинка", rows[0].Cell(1).String())
	assert.True(t, rows[0].Cell(3).IsEmpty())
}

func TestTransformWithoutStatusColumn(t *testing.T) {
	cm := types.NewColumnMap(map[types.Role]int{
		types.RoleName:         0,
		types.RoleSpecialPrice: 1,
		types.RoleRetailPrice:  2,
	})
	rows := []types.Row{{Source: 1, Cells: []types.Cell{types.Text("Эмаль К2"), {}, types.Number(1000)}}}

	out, stats := Transform(rows, cm, NewNormalizer(DefaultStatusRules()), newCalculator(t, false))

	assert.Equal(t, types.Number(700), out[0].Cell(1))
	assert.Equal(t, 0, stats.RowsWithSale)
	assert.Equal(t, 1, stats.PerRule[types.RuleDiscountComputed])
}

func TestPassesOrder(t *testing.T) {
	passes := Passes(NewNormalizer(DefaultStatusRules()), newCalculator(t, false))
	require.Len(t, passes, 2)
	assert.Equal(t, "normalize-status", passes[0].Name)
	assert.Equal(t, "calculate-prices", passes[1].Name)
}
