package service

import (
	"cellclassify/internal/ml"
	"cellclassify/internal/model"
)

// ModelCatalog returns the static description of every supported model, keyed by model kind.
func ModelCatalog() map[string]model.ModelInfo {
	return map[string]model.ModelInfo{
		ml.CatBoost: {
			Name:        "CatBoost",
			Description: "Gradient boosting with automatic handling of categorical features",
			Performance: "Very high (>99% accuracy)",
			Speed:       "Fast",
			Recommended: true,
		},
		ml.XGBoost: {
			Name:        "XGBoost",
			Description: "Optimized extreme gradient boosting",
			Performance: "High (>98% accuracy)",
			Speed:       "Fast",
			Recommended: true,
		},
		ml.RandomForest: {
			Name:        "Random Forest",
			Description: "Ensemble of decision trees",
			Performance: "Good (>95% accuracy)",
			Speed:       "Medium",
			Recommended: false,
		},
	}
}
