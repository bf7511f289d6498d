package dashboard

import "patient-dashboard/internal/models"

// Aggregate derives the summary cards from a patient list. Only the exact
// verdict "Obese" counts toward Obese.
func Aggregate(patients []models.Patient) models.Stats {
	if len(patients) == 0 {
		return models.Stats{}
	}

	var sum float64
	obese := 0
	for _, p := range patients {
		sum += p.BMI
		if p.Verdict == models.VerdictObese {
			obese++
		}
	}
	return models.Stats{
		Total:  len(patients),
		AvgBMI: sum / float64(len(patients)),
		Obese:  obese,
	}
}
