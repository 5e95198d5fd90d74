package main

import (
	"context"
	"log"
	"os"

	"github.com/clinova/medassist/internal/adapters/database"
	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/infrastructure/clients/postgres"
	"github.com/clinova/medassist/pkg/config"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	patientRepo := database.NewPatientAdapter(pgClient)
	consultationRepo := database.NewConsultationAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				consultations,
				patients
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed Patients
	patients := []entities.Patient{
		{
			PatientKey:      "a3f1c9d2",
			FullName:        "Marie Dubois",
			Age:             "58",
			Sex:             "F",
			Occupation:      "Teacher",
			ChronicDiseases: []string{"hypertension", "type 2 diabetes"},
			Allergies:       []string{"penicillin"},
		},
		{
			PatientKey:      "b7e4a001",
			FullName:        "Jean Martin",
			Age:             "42",
			Sex:             "M",
			Occupation:      "Electrician",
			ChronicDiseases: []string{"asthma"},
			Allergies:       nil,
		},
		{
			PatientKey:      "c2d8f560",
			FullName:        "Amina Benali",
			Age:             "35",
			Sex:             "F",
			Occupation:      "Software engineer",
			ChronicDiseases: nil,
			Allergies:       []string{"latex"},
		},
	}

	for _, p := range patients {
		if err := patientRepo.Create(ctx, &p); err != nil {
			if apperrors.IsConflict(err) {
				log.Printf("Patient %s already seeded, skipping", p.PatientKey)
				continue
			}
			log.Printf("Failed to create patient %s: %v", p.PatientKey, err)
		}
	}

	// 2. Seed Consultations (without embeddings; run the backfill job
	// afterwards to make them retrievable)
	consultations := []entities.Consultation{
		{
			ReportID:   1,
			PatientKey: "a3f1c9d2",
			Symptoms:   []string{"fever", "dry cough", "fatigue"},
			Pathology:  "Influenza",
			Treatment:  []string{"rest", "paracetamol 1g three times daily"},
			Keywords:   []string{"flu", "fever", "cough"},
			Date:       "2026-01-14",
			Summary:    "Patient presented with flu-like symptoms: fever, dry cough and fatigue. Advised rest, hydration and paracetamol.",
		},
		{
			ReportID:   2,
			PatientKey: "a3f1c9d2",
			Symptoms:   []string{"elevated blood pressure", "headache"},
			Pathology:  "Uncontrolled hypertension",
			Treatment:  []string{"amlodipine 5mg daily", "low-sodium diet"},
			Keywords:   []string{"hypertension", "headache", "blood pressure"},
			Date:       "2026-03-02",
			Summary:    "Follow-up for hypertension. Blood pressure remained elevated despite lifestyle measures; amlodipine started.",
		},
		{
			ReportID:   1,
			PatientKey: "b7e4a001",
			Symptoms:   []string{"wheezing", "shortness of breath"},
			Pathology:  "Asthma exacerbation",
			Treatment:  []string{"salbutamol inhaler", "inhaled corticosteroid review"},
			Keywords:   []string{"asthma", "wheezing", "dyspnea"},
			Date:       "2026-02-20",
			Summary:    "Asthma exacerbation after a respiratory infection. Reliever use increased; controller therapy reviewed.",
		},
		{
			ReportID:   1,
			PatientKey: "c2d8f560",
			Symptoms:   []string{"lower back pain"},
			Pathology:  "Chronic lumbar strain",
			Treatment:  []string{"physiotherapy", "posture correction"},
			Keywords:   []string{"back pain", "lumbar", "posture"},
			Date:       "2026-04-11",
			Summary:    "Chronic lower back pain aggravated by prolonged sitting. Referred to physiotherapy with posture guidance.",
		},
	}

	for _, c := range consultations {
		if err := consultationRepo.Insert(ctx, &c); err != nil {
			if apperrors.IsConflict(err) {
				log.Printf("Consultation %s/%d already seeded, skipping", c.PatientKey, c.ReportID)
				continue
			}
			log.Printf("Failed to insert consultation %s/%d: %v", c.PatientKey, c.ReportID, err)
		}
	}

	log.Println("Seeding complete")
}
