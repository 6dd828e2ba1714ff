// Command seed creates the schema and loads a deterministic demo dataset:
// three schools with two classes of four students each, staff accounts per
// school, three terms of grades and the achievement catalog. Safe to rerun;
// every insert is an upsert.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiyun-ho/report-card-sub001/internal/achievement"
	"github.com/shiyun-ho/report-card-sub001/internal/config"
	"github.com/shiyun-ho/report-card-sub001/internal/crypto"
	"github.com/shiyun-ho/report-card-sub001/internal/db"
	"github.com/shiyun-ho/report-card-sub001/internal/model"
)

const seedPassword = "password123"

var schoolNames = []string{"Riverside Primary", "Hillview Primary", "Eastwood Primary"}

var subjectList = []model.Subject{
	{Code: "EN", Name: "English"},
	{Code: "MA", Name: "Mathematics"},
	{Code: "SC", Name: "Science"},
	{Code: "CH", Name: "Chinese"},
}

// Score lines per student slot across the three terms, one row per subject
// in subjectList order. Slot 0 improves sharply, slot 1 scores at the top,
// slot 2 climbs overall, slot 3 holds a high average.
var scoreLines = [4][3][4]float64{
	{{55, 62, 70, 58}, {68, 71, 74, 66}, {88, 82, 79, 78}},
	{{90, 92, 94, 91}, {91, 93, 95, 92}, {93, 95, 96, 94}},
	{{50, 52, 55, 51}, {60, 63, 64, 61}, {72, 74, 75, 73}},
	{{86, 88, 87, 85}, {87, 89, 88, 86}, {88, 90, 89, 87}},
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.CreateSchema(ctx, pool); err != nil {
		log.Fatalf("schema creation failed: %v", err)
	}
	if err := seed(ctx, pool, cfg.BcryptCost); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Printf("seed complete")
}

func seed(ctx context.Context, pool *pgxpool.Pool, bcryptCost int) error {
	passwordHash, err := crypto.HashPassword(seedPassword, bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	subjectIDs := make([]string, len(subjectList))
	for i, subject := range subjectList {
		id, err := upsertReturningID(ctx, pool,
			`INSERT INTO subjects (code, name) VALUES ($1, $2)
			 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`, subject.Code, subject.Name)
		if err != nil {
			return fmt.Errorf("subject %s: %w", subject.Code, err)
		}
		subjectIDs[i] = id
	}

	for _, entry := range achievement.DefaultCatalog() {
		_, err := upsertReturningID(ctx, pool,
			`INSERT INTO achievement_catalog (title, description, category, kind, subject, min_value)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (title) DO UPDATE SET
			     description = EXCLUDED.description,
			     category = EXCLUDED.category,
			     kind = EXCLUDED.kind,
			     subject = EXCLUDED.subject,
			     min_value = EXCLUDED.min_value
			 RETURNING id`,
			entry.Title, entry.Description, entry.Category, entry.Kind, entry.Subject, entry.MinValue)
		if err != nil {
			return fmt.Errorf("catalog %q: %w", entry.Title, err)
		}
	}

	for schoolIndex, schoolName := range schoolNames {
		schoolID, err := upsertReturningID(ctx, pool,
			`INSERT INTO schools (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`, schoolName)
		if err != nil {
			return fmt.Errorf("school %s: %w", schoolName, err)
		}

		slug := fmt.Sprintf("school%d", schoolIndex+1)
		teacherID, err := upsertUser(ctx, pool, schoolID, "teacher@"+slug+".edu", passwordHash,
			fmt.Sprintf("Form Teacher %d", schoolIndex+1), model.RoleFormTeacher)
		if err != nil {
			return err
		}
		if _, err := upsertUser(ctx, pool, schoolID, "head@"+slug+".edu", passwordHash,
			fmt.Sprintf("Year Head %d", schoolIndex+1), model.RoleYearHead); err != nil {
			return err
		}
		if schoolIndex == 0 {
			if _, err := upsertUser(ctx, pool, schoolID, "admin@district.edu", passwordHash,
				"District Admin", model.RoleAdmin); err != nil {
				return err
			}
		}

		termIDs := make([]string, 3)
		for termNumber := 1; termNumber <= 3; termNumber++ {
			id, err := upsertReturningID(ctx, pool,
				`INSERT INTO terms (school_id, name, academic_year, term_number)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (school_id, academic_year, term_number) DO UPDATE SET name = EXCLUDED.name
				 RETURNING id`,
				schoolID, fmt.Sprintf("Term %d", termNumber), 2025, termNumber)
			if err != nil {
				return fmt.Errorf("term %d for %s: %w", termNumber, schoolName, err)
			}
			termIDs[termNumber-1] = id
		}

		for classIndex, className := range []string{"Primary 4A", "Primary 4B"} {
			classID, err := upsertReturningID(ctx, pool,
				`INSERT INTO classes (school_id, name) VALUES ($1, $2)
				 ON CONFLICT (school_id, name) DO UPDATE SET name = EXCLUDED.name
				 RETURNING id`, schoolID, className)
			if err != nil {
				return fmt.Errorf("class %s: %w", className, err)
			}
			// The form teacher takes only the first class, so the second
			// stays outside their scope.
			if classIndex == 0 {
				if _, err := pool.Exec(ctx,
					`INSERT INTO teacher_class_assignments (teacher_id, class_id)
					 VALUES ($1, $2) ON CONFLICT DO NOTHING`, teacherID, classID); err != nil {
					return fmt.Errorf("assignment: %w", err)
				}
			}

			for slot := 0; slot < 4; slot++ {
				studentName := fmt.Sprintf("Student %d%c-%d", schoolIndex+1, 'A'+classIndex, slot+1)
				studentID, err := upsertReturningID(ctx, pool,
					`INSERT INTO students (school_id, class_id, full_name)
					 SELECT $1, $2, $3
					 WHERE NOT EXISTS (
					     SELECT 1 FROM students WHERE class_id = $2 AND full_name = $3
					 )
					 RETURNING id`, schoolID, classID, studentName)
				if err != nil {
					return fmt.Errorf("student %s: %w", studentName, err)
				}
				if studentID == "" {
					continue // already seeded
				}
				for termIndex, termID := range termIDs {
					for subjectIndex, subjectID := range subjectIDs {
						score := scoreLines[slot][termIndex][subjectIndex]
						if _, err := pool.Exec(ctx,
							`INSERT INTO grades (student_id, subject_id, term_id, score)
							 VALUES ($1, $2, $3, $4)
							 ON CONFLICT (student_id, subject_id, term_id) DO UPDATE SET score = EXCLUDED.score`,
							studentID, subjectID, termID, score); err != nil {
							return fmt.Errorf("grade for %s: %w", studentName, err)
						}
					}
				}
			}
		}
	}
	return nil
}

func upsertUser(ctx context.Context, pool *pgxpool.Pool, schoolID, email, passwordHash, fullName string, role model.Role) (string, error) {
	id, err := upsertReturningID(ctx, pool,
		`INSERT INTO users (school_id, email, password_hash, full_name, role)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE SET
		     password_hash = EXCLUDED.password_hash,
		     full_name = EXCLUDED.full_name,
		     role = EXCLUDED.role
		 RETURNING id`,
		schoolID, email, passwordHash, fullName, string(role))
	if err != nil {
		return "", fmt.Errorf("user %s: %w", email, err)
	}
	return id, nil
}

func upsertReturningID(ctx context.Context, pool *pgxpool.Pool, sql string, args ...interface{}) (string, error) {
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	if !rows.Next() {
		return "", rows.Err()
	}
	var id string
	if err := rows.Scan(&id); err != nil {
		return "", err
	}
	rows.Close()
	return id, rows.Err()
}
