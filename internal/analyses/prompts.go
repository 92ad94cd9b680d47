package analyses

import (
	"encoding/json"
	"fmt"

	"smartcs-backend/internal/shared/util"
)

const (
	cropMaxTokens        = 500
	soilMaxTokens        = 500
	integrationMaxTokens = 300
	singleMaxTokens      = 1024
	singleTemperature    = 0.7

	maxNotesRunes = 2000
)

// PHLabel classifies a pH reading. Unparseable input is treated as neutral.
func PHLabel(ph Numeric) string {
	v, err := ph.Float()
	switch {
	case err != nil:
		return "Neutral"
	case v > 7:
		return "Alkaline"
	case v < 7:
		return "Acidic"
	default:
		return "Neutral"
	}
}

func notes(s string) string {
	return util.SanitizeFreeText(s, maxNotesRunes)
}

func orNone(s string) string {
	if s = notes(s); s == "" {
		return "None"
	}
	return s
}

// CropPrompt builds the vision prompt for the crop stage.
func CropPrompt(req AnalysisRequest) string {
	return fmt.Sprintf(`You are an agricultural expert AI. Analyze this crop image and provide a structured JSON response with the following format (ONLY valid JSON, no markdown):
{
  "cropType": %[1]q,
  "disease": "disease name or healthy status",
  "confidence": "percentage or confidence level",
  "urgency": "Critical/High/Medium/Low",
  "ndvi": %[2]q,
  "ndre": %[3]q,
  "rgbDamageScore": %[4]q,
  "symptoms": ["symptom1", "symptom2"],
  "treatment": ["treatment1", "treatment2"],
  "prevention": ["prevention1", "prevention2"]
}

Crop Description: %[5]s
Additional Context: This is a %[6]s crop with NDVI: %[2]s, NDRE: %[3]s, RGB Damage Score: %[4]s`,
		req.CropType, req.NDVI, req.NDRE, req.RGBDamageScore, orNone(req.CropDescription), req.CropType)
}

// SoilPrompt builds the text prompt for the soil stage.
func SoilPrompt(req AnalysisRequest) string {
	return fmt.Sprintf(`You are an agricultural soil expert. Based on the following soil parameters, provide a structured JSON response with the following format (ONLY valid JSON, no markdown):
{
  "phStatus": "status based on pH value",
  "temperatureStatus": "status based on temperature",
  "moistureStatus": "status based on moisture percentage",
  "soilHealth": "overall assessment",
  "nutrients": {
    "nitrogen": "status",
    "phosphorus": "status",
    "potassium": "status"
  },
  "suitableCrops": ["crop1", "crop2", "crop3"],
  "recommendations": ["recommendation1", "recommendation2"]
}

Soil Parameters:
- pH Level: %s (%s)
- Moisture: %s%%
- Temperature: %s°C
- Soil Type: %s
- Nitrogen: %s mg/kg
- Potassium: %s mg/kg
- Description: %s`,
		req.PH, PHLabel(req.PH), req.Moisture, req.Temperature, req.SoilType,
		req.Nitrogen, req.Potassium, orNone(req.SoilDescription))
}

// IntegrationPrompt asks for recommendations that combine both analyses.
func IntegrationPrompt(crop CropAnalysis, soil SoilAnalysis) (string, error) {
	cropJSON, err := json.Marshal(crop)
	if err != nil {
		return "", fmt.Errorf("encode crop analysis: %w", err)
	}
	soilJSON, err := json.Marshal(soil)
	if err != nil {
		return "", fmt.Errorf("encode soil analysis: %w", err)
	}
	return fmt.Sprintf("Based on this crop analysis: %s and soil analysis: %s, provide 3-4 integrated recommendations as a JSON array of strings. Return ONLY the JSON array, no markdown or extra text.",
		cropJSON, soilJSON), nil
}

// PlantPrompt builds the crop-only vision prompt.
func PlantPrompt(req PlantRequest) string {
	if desc := notes(req.Description); desc != "" {
		return fmt.Sprintf("Analyze this plant image. Additional info: %s. Provide disease diagnosis, treatment, and prevention.", desc)
	}
	return "Analyze this plant image for diseases, health issues, or abnormalities. Provide detailed diagnosis and recommendations."
}

// SoilOnlyPrompt builds the soil-only text prompt.
func SoilOnlyPrompt(req SoilRequest) string {
	additional := notes(req.Description)
	if additional == "" {
		additional = "Standard soil analysis"
	}
	return fmt.Sprintf(`Analyze this soil with the following properties:
- pH Level: %s (%s)
- Moisture Level: %s%%
- Temperature: %s°C
- Soil Type: %s
- Additional Notes: %s

Provide detailed analysis including:
1. Soil health assessment
2. Nutrient level estimates
3. Suitable crops for this soil
4. Specific recommendations to improve soil quality
5. Any concerns or issues to address`,
		req.PH, PHLabel(req.PH), req.Moisture, req.Temperature, req.SoilType, additional)
}
