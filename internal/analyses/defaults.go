package analyses

// defaultCropAnalysis is used when the crop response cannot be parsed. The
// request's own measurements are echoed so the caller still sees its inputs.
func defaultCropAnalysis(req AnalysisRequest) CropAnalysis {
	return CropAnalysis{
		CropType:       Text(req.CropType),
		Disease:        "Unable to determine",
		Confidence:     "Low",
		Urgency:        "Medium",
		NDVI:           Text(req.NDVI),
		NDRE:           Text(req.NDRE),
		RGBDamageScore: Text(req.RGBDamageScore),
		Symptoms:       []string{"Analysis pending"},
		Treatment:      []string{"Please consult an agronomist"},
		Prevention:     []string{"Regular monitoring recommended"},
	}
}

func defaultSoilAnalysis() SoilAnalysis {
	return SoilAnalysis{
		PHStatus:          "Neutral",
		TemperatureStatus: "Moderate",
		MoistureStatus:    "Adequate",
		SoilHealth:        "Good",
		Nutrients: Nutrients{
			Nitrogen:   "Moderate",
			Phosphorus: "Moderate",
			Potassium:  "Moderate",
		},
		SuitableCrops:   []string{"Wheat", "Rice", "Maize"},
		Recommendations: []string{"Maintain current soil conditions", "Regular monitoring advised"},
	}
}

func defaultRecommendations() []string {
	return []string{
		"Monitor crop and soil conditions regularly",
		"Adjust watering based on moisture levels",
		"Apply appropriate nutrients based on soil analysis",
	}
}
