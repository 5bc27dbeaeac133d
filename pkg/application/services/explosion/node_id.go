package explosion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

const nodeIDPrecision = 6

// NodeKind distinguishes item nodes from operation nodes
type NodeKind string

const (
	NodeItem      NodeKind = "item"
	NodeOperation NodeKind = "operation"
)

// NodeRef is the decoded form of a node id
type NodeRef struct {
	Kind            NodeKind
	ItemID          entities.ItemID
	Quantity        decimal.Decimal
	SpecOperationID int64
}

// ItemNodeID encodes an item node as item:{item_id}:{path_qty}
func ItemNodeID(itemID entities.ItemID, pathQty decimal.Decimal) string {
	return fmt.Sprintf("item:%d:%s", itemID, formatNodeQty(pathQty))
}

// OperationNodeID encodes an operation node as op:{spec_operation_id}:{parent_item_id}:{parent_path_qty}
func OperationNodeID(specOperationID int64, parentItemID entities.ItemID, parentQty decimal.Decimal) string {
	return fmt.Sprintf("op:%d:%d:%s", specOperationID, parentItemID, formatNodeQty(parentQty))
}

// formatNodeQty renders a quantity the way clients already store node ids:
// shortest float form with a trailing ".0" on whole numbers, exponent form below 1e-4 and from 1e16.
func formatNodeQty(qty decimal.Decimal) string {
	f, _ := qty.Round(nodeIDPrecision).Float64()
	if f == 0 {
		return "0.0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

// ParseNodeID decodes an id produced by ItemNodeID or OperationNodeID
func ParseNodeID(id string) (NodeRef, error) {
	parts := strings.Split(strings.TrimSpace(id), ":")
	switch {
	case len(parts) == 3 && parts[0] == "item":
		itemID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || itemID <= 0 {
			return NodeRef{}, invalidNodeID(id)
		}
		qty, err := decimal.NewFromString(parts[2])
		if err != nil {
			return NodeRef{}, invalidNodeID(id)
		}
		return NodeRef{Kind: NodeItem, ItemID: entities.ItemID(itemID), Quantity: qty}, nil

	case len(parts) == 4 && parts[0] == "op":
		specOpID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return NodeRef{}, invalidNodeID(id)
		}
		itemID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return NodeRef{}, invalidNodeID(id)
		}
		qty, err := decimal.NewFromString(parts[3])
		if err != nil {
			return NodeRef{}, invalidNodeID(id)
		}
		return NodeRef{
			Kind:            NodeOperation,
			ItemID:          entities.ItemID(itemID),
			Quantity:        qty,
			SpecOperationID: specOpID,
		}, nil
	}
	return NodeRef{}, invalidNodeID(id)
}

func invalidNodeID(id string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid node id %q", id))
}
