package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/api/responses"
	"github.com/angelmondragon/estatedesk-backend/api/validators"
	"github.com/angelmondragon/estatedesk-backend/internal/attachments"
	"github.com/angelmondragon/estatedesk-backend/internal/payments"
	"github.com/angelmondragon/estatedesk-backend/internal/reservations"
	"github.com/angelmondragon/estatedesk-backend/internal/transfer"
	"github.com/angelmondragon/estatedesk-backend/pkg/config"
	"github.com/angelmondragon/estatedesk-backend/pkg/db"
	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatedesk-backend/pkg/errors"
	"github.com/angelmondragon/estatedesk-backend/pkg/logger"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	saleDateLayout       = "2006-01-02"
)

type saleFinalizer interface {
	Finalize(ctx context.Context, req transfer.Request) (transfer.Outcome, error)
}

type unitLookup interface {
	FindByID(ctx context.Context, buildingID, unitID uuid.UUID) (*models.Unit, error)
}

type depositPreviewer interface {
	Preview(ctx context.Context, unitID uuid.UUID) (*models.Reservation, error)
}

// saleForm mirrors the text fields of the sale multipart form. Required-ness is
// enforced by the domain validators so their reasons reach the client.
type saleForm struct {
	BuyerName                   string   `form:"buyer_name" validate:"max=200"`
	BuyerPhone                  string   `form:"buyer_phone" validate:"max=32"`
	PaymentMethods              []string `form:"payment_methods" validate:"max=8,dive,max=64"`
	CashAmount                  string   `form:"cash_amount" validate:"max=32"`
	TransferBankName            string   `form:"transfer_bank_name" validate:"max=120"`
	TransferAmount              string   `form:"transfer_amount" validate:"max=32"`
	TransferReference           string   `form:"transfer_reference" validate:"max=120"`
	CheckBankName               string   `form:"check_bank_name" validate:"max=120"`
	CheckNumber                 string   `form:"check_number" validate:"max=64"`
	CheckAmount                 string   `form:"check_amount" validate:"max=32"`
	CommissionAmount            string   `form:"commission_amount" validate:"max=32"`
	TaxExempt                   bool     `form:"tax_exempt"`
	ElectricityMeterTransferred bool     `form:"electricity_meter_transferred"`
	DriverRoomTransferred       bool     `form:"driver_room_transferred"`
	DepositSettlement           string   `form:"deposit_settlement" validate:"max=16"`
	RefundAccount               string   `form:"refund_account" validate:"max=64"`
	SaleDate                    string   `form:"sale_date" validate:"omitempty,datetime=2006-01-02"`
}

func readSaleForm(r *http.Request) saleForm {
	return saleForm{
		BuyerName:                   validators.SanitizeString(r.FormValue("buyer_name"), 0),
		BuyerPhone:                  validators.SanitizeString(r.FormValue("buyer_phone"), 0),
		PaymentMethods:              r.Form["payment_methods"],
		CashAmount:                  r.FormValue("cash_amount"),
		TransferBankName:            validators.SanitizeString(r.FormValue("transfer_bank_name"), 0),
		TransferAmount:              r.FormValue("transfer_amount"),
		TransferReference:           validators.SanitizeString(r.FormValue("transfer_reference"), 0),
		CheckBankName:               validators.SanitizeString(r.FormValue("check_bank_name"), 0),
		CheckNumber:                 validators.SanitizeString(r.FormValue("check_number"), 0),
		CheckAmount:                 r.FormValue("check_amount"),
		CommissionAmount:            r.FormValue("commission_amount"),
		TaxExempt:                   formBool(r.FormValue("tax_exempt")),
		ElectricityMeterTransferred: formBool(r.FormValue("electricity_meter_transferred")),
		DriverRoomTransferred:       formBool(r.FormValue("driver_room_transferred")),
		DepositSettlement:           validators.SanitizeString(r.FormValue("deposit_settlement"), 0),
		RefundAccount:               validators.SanitizeString(r.FormValue("refund_account"), 0),
		SaleDate:                    validators.SanitizeString(r.FormValue("sale_date"), 0),
	}
}

// formBool accepts the values browsers and API clients send for checkboxes.
func formBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func (f saleForm) toRequest(buildingID, unitID uuid.UUID, key string) (transfer.Request, error) {
	req := transfer.Request{
		BuildingID:     buildingID,
		UnitID:         unitID,
		IdempotencyKey: key,
		Buyer:          payments.Buyer{Name: f.BuyerName, Phone: f.BuyerPhone},
		Payment: payments.Input{
			Methods:           f.PaymentMethods,
			CashAmount:        f.CashAmount,
			TransferBankName:  f.TransferBankName,
			TransferAmount:    f.TransferAmount,
			TransferReference: f.TransferReference,
			CheckBankName:     f.CheckBankName,
			CheckNumber:       f.CheckNumber,
			CheckAmount:       f.CheckAmount,
		},
		CommissionAmount:            payments.ParseAmount(f.CommissionAmount),
		TaxExempt:                   f.TaxExempt,
		ElectricityMeterTransferred: f.ElectricityMeterTransferred,
		DriverRoomTransferred:       f.DriverRoomTransferred,
		Deposit: reservations.Decision{
			Settlement:    f.DepositSettlement,
			RefundAccount: f.RefundAccount,
		},
	}
	if f.SaleDate != "" {
		date, err := time.Parse(saleDateLayout, f.SaleDate)
		if err != nil {
			return transfer.Request{}, pkgerrors.Invalid("InvalidSaleDate", "sale_date", "sale date must be YYYY-MM-DD")
		}
		req.SaleDate = date
	}
	return req, nil
}

// saleFiles opens every attachment slot present in the form. Closers must be
// called once the request is done.
func saleFiles(r *http.Request) ([]attachments.File, []multipart.File, error) {
	var (
		files   []attachments.File
		closers []multipart.File
	)
	for _, slot := range enums.AttachmentSlots() {
		file, header, err := r.FormFile(slot.FormField())
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, closers, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read attachment").
				WithDetails(map[string]any{"field": slot.FormField()})
		}
		closers = append(closers, file)
		files = append(files, attachments.File{
			Slot: slot,
			Name: header.Filename,
			Size: header.Size,
			Body: file,
		})
	}
	return files, closers, nil
}

type saleStepResponse struct {
	State      string `json:"state"`
	Skipped    bool   `json:"skipped,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type saleResponse struct {
	State         string             `json:"state"`
	SaleID        *uuid.UUID         `json:"sale_id,omitempty"`
	ReservationID *uuid.UUID         `json:"reservation_id,omitempty"`
	Settlement    string             `json:"settlement,omitempty"`
	Mutated       []string           `json:"mutated"`
	Attachments   map[string]string  `json:"attachments,omitempty"`
	Steps         []saleStepResponse `json:"steps"`
}

func newSaleResponse(out transfer.Outcome) saleResponse {
	resp := saleResponse{
		State:         out.State.String(),
		ReservationID: out.ReservationID,
		Settlement:    string(out.Settlement),
		Mutated:       out.Mutated,
		Steps:         make([]saleStepResponse, 0, len(out.Steps)),
	}
	if id := out.SaleID(); id != uuid.Nil {
		resp.SaleID = &id
	}
	if len(out.Attachments) > 0 {
		resp.Attachments = make(map[string]string, len(out.Attachments))
		for slot, url := range out.Attachments {
			resp.Attachments[slot.String()] = url
		}
	}
	for _, step := range out.Steps {
		s := saleStepResponse{
			State:      step.State.String(),
			Skipped:    step.Skipped,
			DurationMS: step.Duration.Milliseconds(),
		}
		if step.Err != nil {
			s.Error = step.Err.Error()
		}
		resp.Steps = append(resp.Steps, s)
	}
	return resp
}

// FinalizeUnitSale handles the multipart sale form for a unit.
func FinalizeUnitSale(svc saleFinalizer, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		buildingID, err := validators.PathUUID(r, "buildingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitID, err := validators.PathUUID(r, "unitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(cfg.Sale.MaxUploadBytes()); err != nil {
			responses.WriteError(r.Context(), logg, w, multipartError(err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		form := readSaleForm(r)
		if err := validators.Struct(&form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := form.toRequest(buildingID, unitID, strings.TrimSpace(r.Header.Get(headerIdempotencyKey)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		files, closers, err := saleFiles(r)
		defer func() {
			for _, c := range closers {
				_ = c.Close()
			}
		}()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.Files = files

		out, err := svc.Finalize(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSaleResponse(out))
	}
}

func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "upload exceeds the size limit").
			WithDetails(map[string]any{"reason": "PayloadTooLarge", "limit_bytes": tooLarge.Limit})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expected a multipart form")
}

type depositPreviewResponse struct {
	Pending         bool       `json:"pending"`
	ReservationID   *uuid.UUID `json:"reservation_id,omitempty"`
	CustomerName    string     `json:"customer_name,omitempty"`
	CustomerAccount *string    `json:"customer_account,omitempty"`
	DepositAmount   int64      `json:"deposit_amount,omitempty"`
	ReceiptNumber   *string    `json:"receipt_number,omitempty"`
}

// UnitSaleDeposit reports the reservation deposit the next sale of a unit must settle.
func UnitSaleDeposit(unitsRepo unitLookup, preview depositPreviewer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unitsRepo == nil || preview == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		buildingID, err := validators.PathUUID(r, "buildingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitID, err := validators.PathUUID(r, "unitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := unitsRepo.FindByID(r.Context(), buildingID, unitID); err != nil {
			if db.IsNotFound(err) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unit not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not load unit"))
			return
		}

		res, err := preview.Preview(r.Context(), unitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if res == nil {
			responses.WriteSuccess(w, depositPreviewResponse{})
			return
		}
		id := res.ID
		responses.WriteSuccess(w, depositPreviewResponse{
			Pending:         true,
			ReservationID:   &id,
			CustomerName:    res.CustomerName,
			CustomerAccount: res.CustomerAccount,
			DepositAmount:   res.DepositAmount,
			ReceiptNumber:   res.ReceiptNumber,
		})
	}
}
