package inspection

import (
	"fmt"
	"strings"
)

// SystemKind identifies one of the fixed inspection systems a vehicle is
// checked against.
type SystemKind string

const (
	SystemMotor        SystemKind = "motor"
	SystemTransmission SystemKind = "transmision"
	SystemBrakes       SystemKind = "frenos"
	SystemSteering     SystemKind = "direccion_suspension"
	SystemBody         SystemKind = "carroceria"
	SystemGeneral      SystemKind = "revision_general"
	SystemInterior     SystemKind = "interior"
)

// SystemOrder is the canonical presentation order.
var SystemOrder = [...]SystemKind{
	SystemMotor,
	SystemTransmission,
	SystemBrakes,
	SystemSteering,
	SystemBody,
	SystemGeneral,
	SystemInterior,
}

// PointSpec is one checklist entry: the stored point name and its display
// label.
type PointSpec struct {
	Key   string `json:"clave"`
	Label string `json:"etiqueta"`
}

type systemSpec struct {
	label  string
	icon   string
	points []PointSpec
}

var systems = map[SystemKind]systemSpec{
	SystemMotor: {
		label: "Motor",
		icon:  "gear",
		points: []PointSpec{
			{"ruidos", "Ruidos anormales"},
			{"fugas", "Fugas de aceite"},
			{"respuesta", "Respuesta del motor"},
		},
	},
	SystemTransmission: {
		label: "Transmisión",
		icon:  "gear-wide-connected",
		points: []PointSpec{
			{"paso_marchas", "Paso de marchas"},
			{"fugas_caja", "Fugas en la caja"},
			{"estado_embrague", "Estado del embrague"},
		},
	},
	SystemBrakes: {
		label: "Frenos",
		icon:  "stop-circle",
		points: []PointSpec{
			{"frenado_correcto", "Frenado correcto"},
			{"sonidos_frenar", "Sonidos al frenar"},
			{"olgura_freno_mano", "Holgura del freno de mano"},
		},
	},
	SystemSteering: {
		label: "Dirección/Suspensión",
		icon:  "sliders",
		points: []PointSpec{
			{"amortiguadores", "Amortiguadores"},
			{"alineacion", "Alineación"},
			{"balanceo", "Balanceo"},
			{"ruidos_tren_delantero", "Ruidos tren delantero"},
			{"ruidos_tren_trasero", "Ruidos tren trasero"},
		},
	},
	SystemBody: {
		label: "Carrocería",
		icon:  "car-front",
		points: []PointSpec{
			{"estado_pintura", "Estado de la pintura"},
			{"abolladuras", "Abolladuras"},
			{"estado_vidrios", "Estado de los vidrios"},
			{"alineacion_piezas", "Alineación de piezas"},
		},
	},
	SystemGeneral: {
		label: "Revisión General",
		icon:  "clipboard-check",
		points: []PointSpec{
			{"estado_luces", "Estado de las luces"},
			{"nivel_liquidos", "Nivel de líquidos"},
			{"kit_emergencia", "Kit de emergencia"},
			{"bateria_alternador", "Batería y alternador"},
			{"presencia_dtc", "Presencia de códigos DTC"},
			{"estado_ruedas", "Estado de las ruedas"},
			{"rueda_repuesto", "Rueda de repuesto"},
		},
	},
	SystemInterior: {
		label: "Interior",
		icon:  "cup-hot",
		points: []PointSpec{
			{"estado_tapiz_butacas", "Estado del tapiz de butacas"},
			{"funcionamiento_radio", "Funcionamiento de la radio"},
			{"desgaste_plasticos", "Desgaste de plásticos"},
			{"accesorios_electricos", "Accesorios eléctricos"},
			{"estado_maleta", "Estado de la maleta"},
		},
	},
}

// ParseSystemKind validates a raw system identifier, typically from a URL.
func ParseSystemKind(s string) (SystemKind, error) {
	k := SystemKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := systems[k]; !ok {
		return "", fmt.Errorf("unknown inspection system %q", s)
	}
	return k, nil
}

// Label returns the display name for the system.
func (k SystemKind) Label() string { return systems[k].label }

// Icon returns the bootstrap icon name used in listings.
func (k SystemKind) Icon() string { return systems[k].icon }

// Checklist returns the fixed checklist for the system, in display order.
func Checklist(k SystemKind) []PointSpec {
	spec := systems[k].points
	out := make([]PointSpec, len(spec))
	copy(out, spec)
	return out
}

// IsChecklistItem reports whether name is a valid point for the system.
func IsChecklistItem(k SystemKind, name string) bool {
	for _, p := range systems[k].points {
		if p.Key == name {
			return true
		}
	}
	return false
}

// Status is the review state of a single inspection point.
type Status string

const (
	StatusPending     Status = "REVISION" // default before a verdict
	StatusGood        Status = "BUENO"
	StatusObservation Status = "OBSERVACION"
	StatusRejected    Status = "RECHAZADO"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusGood, StatusObservation, StatusRejected:
		return true
	}
	return false
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Rollup is the aggregate verdict of a system or a whole vehicle.
type Rollup string

const (
	RollupNotReviewed Rollup = "No revisado"
	RollupApproved    Rollup = "Aprobado"
	RollupInReview    Rollup = "En revisión"
	RollupRejected    Rollup = "Rechazado"
)

// Color maps a rollup to the badge color used by clients.
func (r Rollup) Color() string {
	switch r {
	case RollupApproved:
		return "success"
	case RollupInReview:
		return "warning"
	case RollupRejected:
		return "danger"
	default:
		return "secondary"
	}
}
