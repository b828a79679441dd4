package interfaces

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/finflow/finflow/internal/finance/domain"
)

// maxReceiptSize caps the uploaded image at 10 MB.
const maxReceiptSize = 10 << 20

// ReceiptScanner extracts transaction fields from a receipt image.
type ReceiptScanner interface {
	ScanReceipt(ctx context.Context, imageData []byte, mimeType string) (*domain.ReceiptData, error)
}

type ReceiptHandler struct {
	scanner ReceiptScanner
}

func NewReceiptHandler(scanner ReceiptScanner) *ReceiptHandler {
	return &ReceiptHandler{scanner: scanner}
}

type receiptResponse struct {
	Amount       float64   `json:"amount"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description"`
	MerchantName string    `json:"merchantName"`
	Category     string    `json:"category"`
}

func (h *ReceiptHandler) HandleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if _, ok := userIDFromContext(r); !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if h.scanner == nil {
		respondError(w, http.StatusServiceUnavailable, "Receipt scanning is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptSize)
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing 'receipt' file field")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(imageData)
	}

	receipt, err := h.scanner.ScanReceipt(r.Context(), imageData, mimeType)
	if err != nil {
		// Model output that cannot be parsed is the caller's problem to
		// retry with a better image, not a server fault.
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondSuccess(w, http.StatusOK, receiptResponse{
		Amount:       apiAmount(receipt.Amount),
		Date:         receipt.Date,
		Description:  receipt.Description,
		MerchantName: receipt.MerchantName,
		Category:     receipt.Category,
	})
}
