package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
	"github.com/dynamite/charlyhot-pos/internal/domain/cart"
	"github.com/dynamite/charlyhot-pos/internal/domain/product"
	"github.com/dynamite/charlyhot-pos/internal/domain/table"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encoded(encode func(e *jx.Encoder)) []byte {
	var e jx.Encoder
	encode(&e)
	return e.Bytes()
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Str(money(p.Price)) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("imageUrl", func(e *jx.Encoder) {
			if p.ImageURL == nil {
				e.Null()
				return
			}
			e.Str(*p.ImageURL)
		})
	})
}

func encodeProducts(e *jx.Encoder, products []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			encodeProduct(e, p)
		}
	})
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, v := range values {
			e.Str(v)
		}
	})
}

func encodeTable(e *jx.Encoder, t table.Table) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("number", func(e *jx.Encoder) { e.Int(t.Number) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(t.Status)) })
	})
}

func encodeTables(e *jx.Encoder, tables []table.Table) {
	e.Arr(func(e *jx.Encoder) {
		for _, t := range tables {
			encodeTable(e, t)
		}
	})
}

func encodeCart(e *jx.Encoder, number int, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("table", func(e *jx.Encoder) { e.Int(number) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range c.Lines() {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product", func(e *jx.Encoder) { encodeProduct(e, l.Product) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("notes", func(e *jx.Encoder) { e.Str(l.Notes) })
						e.Field("subtotal", func(e *jx.Encoder) { e.Str(money(l.Subtotal())) })
					})
				}
			})
		})
		e.Field("notes", func(e *jx.Encoder) { e.Str(c.Notes()) })
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(c.ItemCount()) })
		e.Field("total", func(e *jx.Encoder) { e.Str(money(c.Total())) })
	})
}

func encodeSession(e *jx.Encoder, s *auth.Session) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("token", func(e *jx.Encoder) { e.Str(s.Token) })
		e.Field("expiresAt", func(e *jx.Encoder) { e.Str(s.ExpiresAt.UTC().Format(time.RFC3339)) })
		e.Field("user", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(s.User.ID.String()) })
				e.Field("email", func(e *jx.Encoder) { e.Str(s.User.Email) })
				e.Field("name", func(e *jx.Encoder) { e.Str(s.User.Name) })
				e.Field("role", func(e *jx.Encoder) { e.Str(s.User.Role) })
			})
		})
	})
}

// readBody returns the request body limited to maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("read body", err)
	}
	return data, nil
}

// decodeFields walks the top-level object of data calling field for every
// key. Unknown keys must be skipped by field.
func decodeFields(data []byte, field func(d *jx.Decoder, key string) error) error {
	if len(data) == 0 {
		return badRequest("empty body", nil)
	}
	d := jx.DecodeBytes(data)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		return field(d, string(key))
	}); err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			return err
		}
		return badRequest("invalid JSON", err)
	}
	return nil
}

type productInput struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    *string
}

func (in productInput) product() product.Product {
	return product.Product{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
	}
}

func decodeProduct(data []byte) (productInput, error) {
	var in productInput
	err := decodeFields(data, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			in.ID, err = d.Str()
		case "name":
			in.Name, err = d.Str()
		case "description":
			in.Description, err = d.Str()
		case "category":
			in.Category, err = d.Str()
		case "price":
			in.Price, err = decodeMoney(d)
		case "imageUrl":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var url string
			if url, err = d.Str(); err == nil {
				in.ImageURL = &url
			}
		default:
			return d.Skip()
		}
		return err
	})
	return in, err
}

// decodeMoney accepts "12.50" or 12.5.
func decodeMoney(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = n.String()
	default:
		return decimal.Decimal{}, badRequest("price must be a number or decimal string", nil)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, badRequest("invalid price", err)
	}
	return v, nil
}

func decodeCredentials(data []byte) (email, password string, err error) {
	err = decodeFields(data, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			email, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
	return email, password, err
}

func decodeStringField(data []byte, name string) (string, error) {
	var (
		value string
		found bool
	)
	err := decodeFields(data, func(d *jx.Decoder, key string) error {
		if key != name {
			return d.Skip()
		}
		found = true
		var err error
		value, err = d.Str()
		return err
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", badRequest("missing field "+strconv.Quote(name), nil)
	}
	return value, nil
}

// tableNumber parses the {number} URL parameter.
func tableNumber(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "number")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid table number "+strconv.Quote(raw), nil)
	}
	if n <= 0 {
		return 0, table.ErrInvalidNumber
	}
	return n, nil
}
