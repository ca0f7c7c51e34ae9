package cart

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/glass-bazaar/internal/catalog"
)

// Encode serializes items as a JSON array of product-shaped objects with an
// extra "quantity" field.
func Encode(items []LineItem) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, li := range items {
		e.ObjStart()
		catalog.EncodeFields(e, li.Product)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()

	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	return out
}

// Decode parses a persisted snapshot. Entries with a quantity below 1 are
// dropped and only the first entry per product identifier is kept, so the
// result always satisfies the store invariants.
func Decode(data []byte) ([]LineItem, error) {
	items := []LineItem{}
	seen := make(map[int64]struct{})

	dec := jx.DecodeBytes(data)
	err := dec.Arr(func(d *jx.Decoder) error {
		var li LineItem
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			if key == "quantity" {
				q, err := d.Int()
				li.Quantity = q
				return err
			}
			ok, err := catalog.DecodeField(d, key, &li.Product)
			if err != nil || ok {
				return err
			}
			return d.Skip()
		}); err != nil {
			return err
		}

		if li.Quantity < 1 {
			return nil
		}
		if _, dup := seen[li.ID]; dup {
			return nil
		}
		seen[li.ID] = struct{}{}
		items = append(items, li)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart snapshot")
	}
	if err := dec.Skip(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode cart snapshot: trailing data")
	}
	return items, nil
}
