package handlers

import (
	"github.com/anjiri1684/peer_certify/models"
	"github.com/anjiri1684/peer_certify/notifications"
	"github.com/anjiri1684/peer_certify/services"
	"github.com/anjiri1684/peer_certify/signing"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

var validate = validator.New()

type IssueCertificateRequest struct {
	ID             string   `json:"id"`
	StudentName    string   `json:"student_name" validate:"required"`
	CourseName     string   `json:"course_name" validate:"required"`
	IssuerName     string   `json:"issuer_name" validate:"required"`
	CompletionDate string   `json:"completion_date" validate:"required"`
	Description    string   `json:"description"`
	IssueDate      string   `json:"issue_date"`
	Skills         []string `json:"skills"`
	Duration       string   `json:"duration"`
	Grade          string   `json:"grade"`
	WalletAddress  string   `json:"wallet_address"`
	StudentEmail   string   `json:"student_email" validate:"omitempty,email"`
}

type CertificateHandler struct {
	svc *services.CertificateService
}

func NewCertificateHandler(svc *services.CertificateService) *CertificateHandler {
	return &CertificateHandler{svc: svc}
}

func (h *CertificateHandler) IssueCertificate(c *fiber.Ctx) error {
	var req IssueCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cert := models.Certificate{
		ID:             req.ID,
		StudentName:    req.StudentName,
		CourseName:     req.CourseName,
		IssuerName:     req.IssuerName,
		CompletionDate: req.CompletionDate,
		Metadata: models.CertificateMetadata{
			Description: req.Description,
			IssueDate:   req.IssueDate,
			Skills:      req.Skills,
			Duration:    req.Duration,
			Grade:       req.Grade,
		},
	}

	result, err := h.svc.Mint(c.Context(), &cert, req.WalletAddress)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyMinted):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "error": "Certificate already minted"})
		case errors.Is(err, services.ErrInvalidCertificate):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Certificate is missing required fields"})
		case errors.Is(err, signing.ErrDeclined):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "error": "Signing was declined"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Failed to mint certificate"})
	}

	if req.StudentEmail != "" {
		go notifications.SendCertificateIssued(req.StudentName, req.StudentEmail, cert.ID, result.TokenID, result.Simulated)
	}

	response := fiber.Map{
		"success":     true,
		"token_id":    result.TokenID,
		"simulated":   result.Simulated,
		"certificate": cert,
	}
	if result.TransactionID != "" {
		response["transaction_id"] = result.TransactionID
	}
	if result.TruncatedBytes > 0 {
		response["truncated_bytes"] = result.TruncatedBytes
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *CertificateHandler) VerifyCertificate(c *fiber.Ctx) error {
	certificateID := c.Params("id")
	walletAddress := c.Query("wallet")

	result := h.svc.Verify(c.Context(), certificateID, walletAddress)
	return c.JSON(result)
}

func (h *CertificateHandler) GetCertificate(c *fiber.Ctx) error {
	cert, ok := h.svc.GetCertificate(c.Context(), c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate not found"})
	}
	return c.JSON(cert)
}

func (h *CertificateHandler) ListWalletCertificates(c *fiber.Ctx) error {
	certificates := h.svc.ListByWallet(c.Context(), c.Params("address"))
	return c.JSON(fiber.Map{
		"wallet":       c.Params("address"),
		"certificates": certificates,
	})
}
