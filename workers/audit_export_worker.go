package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"game-session-service/models"
	"game-session-service/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const auditExportBatchSize = 500

// AuditExporter ships flagged-session records to R2 for offline review, so
// the forensic trail survives database retention policies.
type AuditExporter struct {
	DB          *gorm.DB
	ServiceName string
}

func NewAuditExporter(db *gorm.DB) *AuditExporter {
	name := os.Getenv("AUDIT_EXPORT_NAME")
	if name == "" {
		name = "game-session-service"
	}
	return &AuditExporter{DB: db, ServiceName: name}
}

type auditReport struct {
	ExportedAt time.Time                   `json:"exported_at"`
	Service    string                      `json:"service"`
	Entries    []models.SuspiciousActivity `json:"entries"`
}

// ExportPending uploads one batch of unexported rows and marks them exported.
// Rows are only marked on upload success — a failed tick retries the same
// batch next time.
func (e *AuditExporter) ExportPending(ctx context.Context) (int, error) {
	var entries []models.SuspiciousActivity
	if err := e.DB.Where("exported = ?", false).
		Order("created_at ASC").
		Limit(auditExportBatchSize).
		Find(&entries).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch pending audit entries: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	report := auditReport{ExportedAt: now, Service: e.ServiceName, Entries: entries}
	body, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal audit report: %w", err)
	}

	key := fmt.Sprintf("audit/%s/%s-%s.json", now.Format("2006-01-02"), slug.Make(e.ServiceName), uuid.NewString())
	if err := utils.UploadBytesToR2(ctx, key, body, "application/json"); err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	if err := e.DB.Model(&models.SuspiciousActivity{}).
		Where("id IN ?", ids).
		Update("exported", true).Error; err != nil {
		// Upload landed but the mark failed; next tick re-exports the same rows
		return 0, fmt.Errorf("failed to mark audit entries exported: %w", err)
	}
	return len(entries), nil
}

// PollAudit drives ExportPending on a fixed interval until ctx is done.
func PollAudit(ctx context.Context, exporter *AuditExporter, pollInterval time.Duration) {
	log.Println("Starting suspicious-activity export polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Audit export polling stopped.")
			return
		case <-ticker.C:
			n, err := exporter.ExportPending(ctx)
			if err != nil {
				log.Printf("❌ Audit export failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("✅ Exported %d suspicious session(s) to R2", n)
			}
		}
	}
}
