package analyses

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Numeric is a request measurement kept in its textual form. It accepts JSON
// numbers and numeric strings so values can be echoed back exactly as sent.
type Numeric string

func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(strings.TrimSpace(s))
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("expected number or numeric string, got %s", data)
		}
		*n = Numeric(num.String())
	}
	return nil
}

// Float parses the value.
func (n Numeric) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
}

func (n Numeric) String() string {
	return string(n)
}

// Text is a model-produced scalar. Models occasionally answer a string field
// with a bare number or boolean; those are kept as their literal text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		return fmt.Errorf("expected scalar, got %s", data)
	default:
		if bytes.Equal(data, []byte("null")) {
			*t = ""
			return nil
		}
		if !json.Valid(data) {
			return fmt.Errorf("invalid scalar %s", data)
		}
		*t = Text(data)
	}
	return nil
}

// Texts is a model-produced list of strings. A bare scalar is read as a
// one-element list, and object elements are reduced to their text.
type Texts []string

// textKeys are the fields read, in order, from an object element.
var textKeys = []string{"text", "title", "recommendation", "description", "name"}

func (ts *Texts) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*ts = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(Texts, 0, len(raw))
		for _, elem := range raw {
			s, err := elementText(elem)
			if err != nil {
				return err
			}
			if s != "" {
				out = append(out, s)
			}
		}
		*ts = out
		return nil
	default:
		s, err := elementText(data)
		if err != nil {
			return err
		}
		*ts = Texts{s}
		return nil
	}
}

func elementText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", fmt.Errorf("empty value")
	}
	switch data[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return "", err
		}
		for _, key := range textKeys {
			var s string
			if raw, ok := fields[key]; ok && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
				return s, nil
			}
		}
		return compact(data)
	case '[':
		return compact(data)
	default:
		var t Text
		if err := t.UnmarshalJSON(data); err != nil {
			return "", err
		}
		return string(t), nil
	}
}

func compact(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// AnalysisRequest is the combined crop and soil analysis input.
type AnalysisRequest struct {
	ImageBase64     string  `json:"imageBase64"`
	CropDescription string  `json:"cropDescription"`
	CropType        string  `json:"cropType" binding:"required,max=100"`
	PH              Numeric `json:"pH" binding:"required,decimal=0:14"`
	Moisture        Numeric `json:"moisture" binding:"required,decimal=0:100"`
	Temperature     Numeric `json:"temperature" binding:"required,decimal"`
	SoilType        string  `json:"soilType" binding:"required,max=100"`
	Nitrogen        Numeric `json:"nitrogen" binding:"required,decimal=0:"`
	Potassium       Numeric `json:"potassium" binding:"required,decimal=0:"`
	NDVI            Numeric `json:"ndvi" binding:"required,decimal=-1:1"`
	NDRE            Numeric `json:"ndre" binding:"required,decimal=-1:1"`
	RGBDamageScore  Numeric `json:"rgbDamageScore" binding:"required,decimal=0:100"`
	SoilDescription string  `json:"soilDescription"`
}

// CropAnalysis is the structured crop diagnosis.
type CropAnalysis struct {
	CropType       Text  `json:"cropType"`
	Disease        Text  `json:"disease"`
	Confidence     Text  `json:"confidence"`
	Urgency        Text  `json:"urgency"`
	NDVI           Text  `json:"ndvi"`
	NDRE           Text  `json:"ndre"`
	RGBDamageScore Text  `json:"rgbDamageScore"`
	Symptoms       Texts `json:"symptoms"`
	Treatment      Texts `json:"treatment"`
	Prevention     Texts `json:"prevention"`
}

// Nutrients holds per-nutrient status labels.
type Nutrients struct {
	Nitrogen   Text `json:"nitrogen" jsonschema:"description=Estimated nitrogen level"`
	Phosphorus Text `json:"phosphorus" jsonschema:"description=Estimated phosphorus level"`
	Potassium  Text `json:"potassium" jsonschema:"description=Estimated potassium level"`
}

// SoilAnalysis is the structured soil assessment.
type SoilAnalysis struct {
	PHStatus          Text      `json:"phStatus" jsonschema:"description=pH classification: Acidic or Neutral or Alkaline"`
	TemperatureStatus Text      `json:"temperatureStatus" jsonschema:"description=Temperature classification: Cold or Moderate or Warm"`
	MoistureStatus    Text      `json:"moistureStatus" jsonschema:"description=Moisture level: Too Dry or Adequate or Too Wet"`
	SoilHealth        Text      `json:"soilHealth" jsonschema:"description=Overall soil health assessment"`
	Nutrients         Nutrients `json:"nutrients" jsonschema:"description=Estimated nutrient levels"`
	SuitableCrops     Texts     `json:"suitableCrops" jsonschema:"description=Best crops for this soil condition"`
	Recommendations   Texts     `json:"recommendations" jsonschema:"description=Specific recommendations for improvement"`
}

// Degradation records a stage whose output was replaced by a default.
type Degradation struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// CombinedAnalysis is the response of the combined pipeline.
type CombinedAnalysis struct {
	CropAnalysis              CropAnalysis  `json:"cropAnalysis"`
	SoilAnalysis              SoilAnalysis  `json:"soilAnalysis"`
	IntegratedRecommendations []string      `json:"integratedRecommendations"`
	Timestamp                 string        `json:"timestamp"`
	Degraded                  []Degradation `json:"degraded,omitempty"`
}

// PlantRequest is the crop-only analysis input.
type PlantRequest struct {
	ImageBase64 string `json:"imageBase64" binding:"required"`
	Description string `json:"description"`
}

// PlantAnalysis is the schema-constrained crop-only diagnosis.
type PlantAnalysis struct {
	Disease    string   `json:"disease" jsonschema:"description=Name of the detected plant disease or health status"`
	Confidence string   `json:"confidence" jsonschema:"description=Confidence level: High or Medium or Low"`
	Symptoms   []string `json:"symptoms" jsonschema:"description=Visible symptoms detected"`
	Treatment  []string `json:"treatment" jsonschema:"description=Recommended treatment methods"`
	Prevention []string `json:"prevention" jsonschema:"description=Prevention tips"`
	Urgency    string   `json:"urgency" jsonschema:"description=Urgency level: Critical or High or Medium or Low"`
}

// SoilRequest is the soil-only analysis input.
type SoilRequest struct {
	PH          Numeric `json:"pH" binding:"required,decimal=0:14"`
	Moisture    Numeric `json:"moisture" binding:"required,decimal=0:100"`
	Temperature Numeric `json:"temperature" binding:"required,decimal"`
	SoilType    string  `json:"soilType" binding:"required,max=100"`
	Description string  `json:"description"`
}
