package pipeline

import "time"

// Warning kinds recorded in a result's erreurs list.
const (
	WarnCalibrationExtrapolated = "calibration_extrapolated"
	WarnTimeout                 = "timeout"
)

// Warning is a non-fatal condition accumulated during a detection request.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result is the final record of one detection request. It is created once by
// the orchestrator, is immutable afterwards, and its ownership transfers to
// the persistence sink. Field names follow the externally defined
// detection_results schema.
type Result struct {
	NiveauY           int            `json:"niveau_y"`
	NiveauPercentage  float64        `json:"niveau_percentage"`
	NiveauML          *float64       `json:"niveau_ml"`
	Confiance         float64        `json:"confiance"`
	MethodeUtilisee   string         `json:"methode_utilisee"`
	TempsTraitementMS float64        `json:"temps_traitement_ms"`
	ImageWidth        int            `json:"image_width"`
	ImageHeight       int            `json:"image_height"`
	CalibrationUsed   string         `json:"calibration_used,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
	Erreurs           []Warning      `json:"erreurs"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}
