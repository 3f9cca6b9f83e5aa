package decode

import (
	"github.com/google/uuid"

	"invoiceledger/pkg/domain"
)

// normalize backfills what the extraction service left out: records without
// an identity get a fresh random one, and records without a recognizable
// status are revalidated against their required fields.
func normalize(result *domain.ExtractionResult) {
	for i := range result.Invoices {
		if result.Invoices[i].ID == "" {
			result.Invoices[i].ID = uuid.NewString()
		}
		if !validStatus(result.Invoices[i].Status) {
			result.Invoices[i].Status = result.Invoices[i].Validate()
		}
	}
	for i := range result.Products {
		if result.Products[i].ID == "" {
			result.Products[i].ID = uuid.NewString()
		}
		if !validStatus(result.Products[i].Status) {
			result.Products[i].Status = result.Products[i].Validate()
		}
	}
	for i := range result.Customers {
		if result.Customers[i].ID == "" {
			result.Customers[i].ID = uuid.NewString()
		}
		if !validStatus(result.Customers[i].Status) {
			result.Customers[i].Status = result.Customers[i].Validate()
		}
	}
}

func validStatus(s domain.Status) bool {
	return s == domain.StatusComplete || s == domain.StatusMissingFields
}
