// Package catalog holds the bundled product dataset and its JSON shape.
//
// The dataset uses the storefront's legacy field names (Id, Name, Price,
// CreatedDate, ...), which is also the shape persisted for cart line items.
package catalog

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/glass-bazaar/internal/domain/product"
)

// createdLayouts lists the accepted CreatedDate formats, most specific first.
var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// EncodeFields writes the product fields into an already opened JSON object.
func EncodeFields(e *jx.Encoder, p product.Product) {
	e.FieldStart("Id")
	e.Int64(p.ID)
	e.FieldStart("Name")
	e.Str(p.Name)
	e.FieldStart("Category")
	e.Str(p.Category)
	e.FieldStart("Price")
	e.Num(jx.Num(p.Price.String()))
	e.FieldStart("Stock")
	e.Int(p.Stock)
	e.FieldStart("InStock")
	e.Bool(p.InStock)
	e.FieldStart("Image")
	e.Str(p.Image)
	e.FieldStart("Rating")
	e.Float64(p.Rating)
	e.FieldStart("Brand")
	e.Str(p.Brand)
	e.FieldStart("Description")
	e.Str(p.Description)
	e.FieldStart("CreatedDate")
	if p.CreatedAt.IsZero() {
		e.Str("")
	} else {
		e.Str(p.CreatedAt.UTC().Format(time.RFC3339Nano))
	}
}

// DecodeField decodes the value of key into p. It reports false without
// consuming the value when key is not a product field.
func DecodeField(d *jx.Decoder, key string, p *product.Product) (bool, error) {
	var err error
	switch key {
	case "Id":
		p.ID, err = d.Int64()
	case "Name":
		p.Name, err = d.Str()
	case "Category":
		p.Category, err = d.Str()
	case "Price":
		p.Price, err = decodeDecimal(d)
	case "Stock":
		p.Stock, err = d.Int()
	case "InStock":
		p.InStock, err = d.Bool()
	case "Image":
		p.Image, err = d.Str()
	case "Rating":
		p.Rating, err = d.Float64()
	case "Brand":
		p.Brand, err = d.Str()
	case "Description":
		p.Description, err = d.Str()
	case "CreatedDate":
		p.CreatedAt, err = decodeTime(d)
	default:
		return false, nil
	}
	if err != nil {
		return true, errors.Wrapf(err, "field %s", key)
	}
	return true, nil
}

// DecodeProducts parses a JSON array of products.
func DecodeProducts(data []byte) ([]product.Product, error) {
	var out []product.Product
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var p product.Product
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			ok, err := DecodeField(d, key, &p)
			if err != nil || ok {
				return err
			}
			return d.Skip()
		}); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return out, nil
}

// decodeDecimal accepts both JSON numbers and numeric strings.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(string(n))
	default:
		return decimal.Zero, errors.Errorf("unexpected %s for decimal", d.Next())
	}
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := d.Str()
	if err != nil || s == "" {
		return time.Time{}, err
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unsupported date %q", s)
}
