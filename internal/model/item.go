package model

// Eye holds the prescription values for one side (OD or OE).
type Eye struct {
	Sphere   float64 `json:"esferico"`
	Cylinder float64 `json:"cilindrico"`
	Axis     float64 `json:"eixo"`
	DNP      float64 `json:"dnp"`
	Height   float64 `json:"altura"`
}

type LineItem struct {
	ID              string  `json:"id"`
	OrderID         string  `json:"order_id"`
	PatientName     string  `json:"nome_paciente"`
	LensType        string  `json:"tipo_lente"`
	Treatment       string  `json:"tratamento"`
	RefractiveIndex string  `json:"indice"`
	Right           Eye     `json:"od"`
	Left            Eye     `json:"oe"`
	Addition        float64 `json:"adicao"`
}
