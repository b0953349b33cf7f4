package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"path"
	"strconv"
	"strings"

	"lensportal/internal/catalog"
	"lensportal/internal/model"
)

// DefaultPatientName is used when the optician leaves the patient blank.
const DefaultPatientName = "CONSUMIDOR FINAL"

// FormValues is satisfied by url.Values and by JSONForm.
type FormValues interface {
	Get(key string) string
}

// JSONForm adapts a decoded JSON object to FormValues. Numbers are rendered
// back to text so they go through the same normalization as form input.
type JSONForm map[string]any

func (f JSONForm) Get(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// OrderForm is a normalized submission, ready to be written.
type OrderForm struct {
	Notes          string
	Total          float64
	Item           model.LineItem
	AttachmentURLs []string
}

// ParseDecimal turns user-typed numeric text into a float. Comma decimal
// separators are accepted. Anything it cannot read becomes 0.
func ParseDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseOrderForm never fails: every field has a default. cat may be nil.
func ParseOrderForm(ctx context.Context, v FormValues, cat *catalog.Catalog) OrderForm {
	patient := strings.ToUpper(strings.TrimSpace(v.Get("nome_paciente")))
	if patient == "" {
		patient = DefaultPatientName
	}

	notes := strings.TrimSpace(v.Get("observacoes"))
	if code := strings.TrimSpace(v.Get("codigo_os")); code != "" {
		if notes == "" {
			notes = "OS: " + code
		} else {
			notes = "OS: " + code + " | " + notes
		}
	}

	productID := strings.TrimSpace(v.Get("produto"))
	lensType := strings.TrimSpace(v.Get("tipo_lente"))
	treatment := strings.TrimSpace(v.Get("tratamento"))
	index := strings.TrimSpace(v.Get("indice"))

	var total float64
	if cat != nil {
		if p, ok := cat.Product(productID); ok && lensType == "" {
			lensType = p.LensType
		}
		if index == "" {
			if m, ok := cat.Material(strings.TrimSpace(v.Get("material"))); ok {
				index = m.Name
			}
		}
		total = cat.Price(productID, treatment)
	}

	return OrderForm{
		Notes: notes,
		Total: total,
		Item: model.LineItem{
			PatientName:     patient,
			LensType:        lensType,
			Treatment:       treatment,
			RefractiveIndex: index,
			Right:           parseEye(v, "od_"),
			Left:            parseEye(v, "oe_"),
			Addition:        ParseDecimal(v.Get("adicao")),
		},
		AttachmentURLs: parseAttachmentURLs(ctx, v.Get("arquivos_urls")),
	}
}

func parseEye(v FormValues, prefix string) model.Eye {
	return model.Eye{
		Sphere:   ParseDecimal(v.Get(prefix + "esferico")),
		Cylinder: ParseDecimal(v.Get(prefix + "cilindrico")),
		Axis:     ParseDecimal(v.Get(prefix + "eixo")),
		DNP:      ParseDecimal(v.Get(prefix + "dnp")),
		Height:   ParseDecimal(v.Get(prefix + "altura")),
	}
}

func parseAttachmentURLs(ctx context.Context, raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		slog.WarnContext(ctx, "ignoring malformed attachment list", "error", err)
		return nil
	}

	out := urls[:0]
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FileType guesses the attachment kind from the URL extension.
func FileType(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(rawURL), ".")); ext {
	case "pdf":
		return "pdf"
	case "jpg", "jpeg":
		return "jpg"
	case "png", "gif", "webp", "heic":
		return ext
	default:
		return "other"
	}
}
