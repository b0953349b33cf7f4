package service

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lensportal/internal/catalog"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"-1,75", -1.75},
		{"-1.75", -1.75},
		{"+2.00", 2},
		{" 0,5 ", 0.5},
		{"180", 180},
		{"abc", 0},
		{"1,2,3", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"-", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseDecimal(tc.in), "input %q", tc.in)
	}
}

func TestParseOrderForm_Defaults(t *testing.T) {
	f := ParseOrderForm(context.Background(), url.Values{}, nil)

	assert.Equal(t, DefaultPatientName, f.Item.PatientName)
	assert.Equal(t, "", f.Notes)
	assert.Zero(t, f.Item.Right)
	assert.Zero(t, f.Item.Left)
	assert.Zero(t, f.Item.Addition)
	assert.Nil(t, f.AttachmentURLs)
	assert.Zero(t, f.Total)
}

func TestParseOrderForm_FullForm(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	v := url.Values{
		"codigo_os":     {"4512"},
		"observacoes":   {"  armação de metal "},
		"nome_paciente": {" joão pereira "},
		"produto":       {"multi_comfort"},
		"material":      {"trivex"},
		"tratamento":    {"blue_cut"},
		"od_esferico":   {"-1,25"},
		"od_cilindrico": {"-0,50"},
		"od_eixo":       {"90"},
		"od_dnp":        {"31,5"},
		"od_altura":     {"18"},
		"oe_esferico":   {"-1,00"},
		"oe_cilindrico": {""},
		"oe_eixo":       {"85"},
		"oe_dnp":        {"32"},
		"oe_altura":     {"18,5"},
		"adicao":        {"1,75"},
		"arquivos_urls": {`["https://cdn.example.com/receita.PDF"]`},
	}

	f := ParseOrderForm(context.Background(), v, cat)

	assert.Equal(t, "OS: 4512 | armação de metal", f.Notes)
	assert.Equal(t, "JOÃO PEREIRA", f.Item.PatientName)
	assert.Equal(t, "multifocal", f.Item.LensType)
	assert.Equal(t, "Trivex", f.Item.RefractiveIndex)
	assert.Equal(t, "blue_cut", f.Item.Treatment)
	assert.Equal(t, 330.0, f.Total)
	assert.Equal(t, -1.25, f.Item.Right.Sphere)
	assert.Equal(t, -0.5, f.Item.Right.Cylinder)
	assert.Equal(t, 90.0, f.Item.Right.Axis)
	assert.Equal(t, 31.5, f.Item.Right.DNP)
	assert.Equal(t, 0.0, f.Item.Left.Cylinder)
	assert.Equal(t, 18.5, f.Item.Left.Height)
	assert.Equal(t, 1.75, f.Item.Addition)
	assert.Equal(t, []string{"https://cdn.example.com/receita.PDF"}, f.AttachmentURLs)
}

func TestParseOrderForm_ExplicitFieldsWinOverCatalog(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	v := url.Values{
		"produto":    {"multi_hd"},
		"tipo_lente": {"ocupacional"},
		"indice":     {"1.74"},
		"material":   {"resina"},
	}
	f := ParseOrderForm(context.Background(), v, cat)
	assert.Equal(t, "ocupacional", f.Item.LensType)
	assert.Equal(t, "1.74", f.Item.RefractiveIndex)
}

func TestJSONForm(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"nome_paciente": "Ana",
		"od_esferico": -2.5,
		"oe_esferico": null,
		"adicao": "2,25",
		"arquivos_urls": ["https://x/y.jpg"]
	}`), &raw))

	f := ParseOrderForm(context.Background(), JSONForm(raw), nil)
	assert.Equal(t, "ANA", f.Item.PatientName)
	assert.Equal(t, -2.5, f.Item.Right.Sphere)
	assert.Equal(t, 0.0, f.Item.Left.Sphere)
	assert.Equal(t, 2.25, f.Item.Addition)
	assert.Equal(t, []string{"https://x/y.jpg"}, f.AttachmentURLs)
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "pdf", FileType("https://x/receita.PDF"))
	assert.Equal(t, "jpg", FileType("https://x/a.jpeg?token=1"))
	assert.Equal(t, "png", FileType("https://x/a.png#frag"))
	assert.Equal(t, "other", FileType("https://x/download"))
}
