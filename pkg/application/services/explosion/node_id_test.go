package explosion

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

func TestNodeIDs_Format(t *testing.T) {
	assert.Equal(t, "item:5:2.5", ItemNodeID(5, decimal.RequireFromString("2.5")))
	assert.Equal(t, "item:1:12.0", ItemNodeID(1, decimal.NewFromInt(12)))
	assert.Equal(t, "item:7:0.333333", ItemNodeID(7, decimal.NewFromInt(1).Div(decimal.NewFromInt(3))))
	assert.Equal(t, "op:42:3:4.0", OperationNodeID(42, 3, decimal.NewFromInt(4)))
}

func TestNodeIDs_QuantityForm(t *testing.T) {
	tests := []struct {
		qty  string
		want string
	}{
		{qty: "1", want: "1.0"},
		{qty: "1.50", want: "1.5"},
		{qty: "1000000", want: "1000000.0"},
		{qty: "0.0001", want: "0.0001"},
		{qty: "0.00005", want: "5e-05"},
		{qty: "0.0000004", want: "0.0"},
		{qty: "2.0000004", want: "2.0"},
		{qty: "12345678901234567", want: "1.2345678901234568e+16"},
	}

	for _, tt := range tests {
		t.Run(tt.qty, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNodeQty(decimal.RequireFromString(tt.qty)))
		})
	}
}

func TestParseNodeID_AcceptsEveryQuantityForm(t *testing.T) {
	for _, id := range []string{"item:3:4", "item:3:4.0", "item:3:4e+00"} {
		ref, err := ParseNodeID(id)
		require.NoError(t, err, id)
		assert.True(t, decimal.NewFromInt(4).Equal(ref.Quantity), id)
	}

	ref, err := ParseNodeID("item:3:5e-05")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.00005").Equal(ref.Quantity))
}

func TestParseNodeID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    NodeRef
		wantErr bool
	}{
		{
			name: "item",
			id:   "item:5:2.5",
			want: NodeRef{Kind: NodeItem, ItemID: 5, Quantity: decimal.RequireFromString("2.5")},
		},
		{
			name: "operation",
			id:   "op:42:3:4",
			want: NodeRef{Kind: NodeOperation, ItemID: 3, Quantity: decimal.NewFromInt(4), SpecOperationID: 42},
		},
		{name: "empty", id: "", wantErr: true},
		{name: "unknown kind", id: "spec:1:1", wantErr: true},
		{name: "bad item id", id: "item:x:1", wantErr: true},
		{name: "zero item id", id: "item:0:1", wantErr: true},
		{name: "bad quantity", id: "item:1:abc", wantErr: true},
		{name: "short operation", id: "op:1:2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNodeID(tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.ItemID, got.ItemID)
			assert.Equal(t, tt.want.SpecOperationID, got.SpecOperationID)
			assert.True(t, tt.want.Quantity.Equal(got.Quantity))
		})
	}
}

func TestNodeIDs_RoundTrip(t *testing.T) {
	qty := decimal.RequireFromString("18.75")
	ref, err := ParseNodeID(ItemNodeID(entities.ItemID(9), qty))
	require.NoError(t, err)
	assert.Equal(t, entities.ItemID(9), ref.ItemID)
	assert.True(t, qty.Equal(ref.Quantity))
}
