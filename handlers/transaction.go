package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wdmmg/finance-api/middleware"
	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/services"
	"github.com/wdmmg/finance-api/utils"
)

type TransactionHandler struct {
	Transactions *services.TransactionService
	WS           *WSHandler
}

func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	req, err := bindTransactionRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	transaction, err := h.Transactions.Create(c.Request.Context(), userID, *req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.NotifyUser(userID, "transaction_created", transaction.ID)
	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	transactions, err := h.Transactions.List(c.Request.Context(), userID, *filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, err := parseRowID(c.Param("id"), "Transaction")
	if err != nil {
		respondError(c, err)
		return
	}

	transaction, err := h.Transactions.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, err := parseRowID(c.Param("id"), "Transaction")
	if err != nil {
		respondError(c, err)
		return
	}

	req, err := bindTransactionRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	transaction, err := h.Transactions.Update(c.Request.Context(), userID, id, *req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.NotifyUser(userID, "transaction_updated", transaction.ID)
	c.JSON(http.StatusOK, transaction)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, err := parseRowID(c.Param("id"), "Transaction")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Transactions.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}

	h.WS.NotifyUser(userID, "transaction_deleted", id)
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

func (h *TransactionHandler) BulkDelete(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if len(req.TransactionIDs) == 0 {
		respondError(c, utils.ValidationError("No transaction IDs provided"))
		return
	}

	// Malformed ids can never match a row; drop them instead of erroring so
	// the response shape stays the same as for unowned ids.
	ids := make([]string, 0, len(req.TransactionIDs))
	for _, id := range req.TransactionIDs {
		if _, err := uuid.Parse(id); err == nil {
			ids = append(ids, id)
		}
	}

	deleted := 0
	if len(ids) > 0 {
		var err error
		deleted, err = h.Transactions.BulkDelete(c.Request.Context(), userID, ids)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	h.WS.NotifyUser(userID, "transactions_deleted", "")
	c.JSON(http.StatusOK, models.BulkDeleteResponse{
		Message:      fmt.Sprintf("Successfully deleted %d transaction(s)", deleted),
		DeletedCount: deleted,
	})
}

// Export streams the caller's transactions as CSV, honoring the same filters
// as List.
func (h *TransactionHandler) Export(c *gin.Context) {
	userID := middleware.GetUserID(c)

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	transactions, err := h.Transactions.List(c.Request.Context(), userID, *filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)
	c.Status(http.StatusOK)

	if err := writeTransactionsCSV(c.Writer, transactions); err != nil {
		// Headers are already out; nothing left to do but log.
		log.Printf("❌ CSV export failed: %v", err)
	}
}

func writeTransactionsCSV(w io.Writer, transactions []models.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Timestamp", "Category", "Amount", "Description"}); err != nil {
		return err
	}

	for _, t := range transactions {
		record := []string{
			t.Timestamp.Format("2006-01-02 15:04:05"),
			t.Category,
			fmt.Sprintf("%.2f", t.Amount),
			t.Description,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// bindTransactionRequest binds and validates the shared create/update
// payload: positive amount, known category, sanitized non-empty description.
func bindTransactionRequest(c *gin.Context) (*models.TransactionRequest, error) {
	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, utils.ValidationError("Invalid request payload: %s", err.Error())
	}

	if req.Amount <= 0 {
		return nil, utils.ValidationError("Amount must be greater than 0")
	}
	if !models.IsValidCategory(req.Category) {
		return nil, utils.ValidationError("Invalid category %q", req.Category)
	}

	req.Description = utils.Sanitize(req.Description)
	if req.Description == "" {
		return nil, utils.ValidationError("Description is required")
	}

	return &req, nil
}

func parseTransactionFilter(c *gin.Context) (*models.TransactionFilter, error) {
	filter := models.TransactionFilter{
		Search: c.Query("search"),
	}

	// Unknown category values match nothing by definition; only keep valid ones.
	if category := c.Query("category"); models.IsValidCategory(category) {
		filter.Category = category
	}

	start, err := parseDateParam(c.Query("start_date"))
	if err != nil {
		return nil, utils.ValidationError("Invalid start_date format. Use ISO format.")
	}
	filter.StartDate = start

	end, err := parseDateParam(c.Query("end_date"))
	if err != nil {
		return nil, utils.ValidationError("Invalid end_date format. Use ISO format.")
	}
	filter.EndDate = end

	return &filter, nil
}

// parseDateParam accepts RFC 3339 or a bare date; "" means unset.
func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseRowID validates a path id. Malformed ids get the same not-found signal
// as unowned rows.
func parseRowID(raw, noun string) (string, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", utils.NotFoundError(noun + " not found")
	}
	return raw, nil
}
