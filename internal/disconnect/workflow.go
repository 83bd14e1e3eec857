// Package disconnect implements the request/approve/reject state machine
// that deactivates company-retailer links. Requests move from pending to
// approved or rejected exactly once; both outcomes are terminal, and a new
// request may be opened after a rejection.
package disconnect

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/authenticas/authenticas-api/internal/audit"
	"github.com/authenticas/authenticas-api/internal/links"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
	"github.com/authenticas/authenticas-api/internal/webhook"
)

// Business errors; handlers map these to 4xx responses.
var (
	ErrCompanyNotFound  = errors.New("disconnect: company not found")
	ErrRequestNotFound  = errors.New("disconnect: request not found")
	ErrNotLinked        = errors.New("disconnect: company is not connected to this retailer")
	ErrPendingExists    = errors.New("disconnect: a pending request already exists for this retailer")
	ErrAlreadyProcessed = errors.New("disconnect: request has already been processed")
	ErrForbidden        = errors.New("disconnect: not authorized for this request")
)

// Workflow drives the disconnect request lifecycle.
type Workflow struct {
	store      *store.Store
	links      *links.Registry
	audit      *audit.Recorder
	dispatcher *webhook.Dispatcher
	logger     *logrus.Logger
}

// NewWorkflow wires the workflow to its collaborators.
func NewWorkflow(
	s *store.Store,
	registry *links.Registry,
	recorder *audit.Recorder,
	dispatcher *webhook.Dispatcher,
	logger *logrus.Logger,
) *Workflow {
	return &Workflow{store: s, links: registry, audit: recorder, dispatcher: dispatcher, logger: logger}
}

// Create opens a pending request. Only a company administrator of the target
// company (or the platform operator) may create one, the link must be
// active, and at most one pending request may exist per pair.
func (w *Workflow) Create(actor *models.Principal, companyID, retailerID string, reason *string) (*models.DisconnectRequest, error) {
	if !actor.Role.CanRequestDisconnect() {
		return nil, ErrForbidden
	}
	if actor.Role != models.RoleSystemAdmin && !actor.InCompany(companyID) {
		return nil, ErrForbidden
	}

	if _, err := store.FindByID[models.Company](w.store, store.Companies, companyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	linked, err := w.links.IsLinked(companyID, retailerID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrNotLinked
	}

	_, err = store.FindOneBy(w.store, store.DisconnectRequests, func(r models.DisconnectRequest) bool {
		return r.CompanyID == companyID && r.RetailerID == retailerID && r.Status == models.DisconnectPending
	})
	if err == nil {
		return nil, ErrPendingExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	request := models.DisconnectRequest{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		RetailerID:  retailerID,
		Status:      models.DisconnectPending,
		Reason:      reason,
		RequestedBy: actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.Append(w.store, store.DisconnectRequests, request); err != nil {
		return nil, fmt.Errorf("disconnect: persist request: %w", err)
	}

	if _, err := w.audit.Record(
		models.ActionDisconnectRequested,
		actor.UserID,
		models.TargetDisconnectRequest,
		companyID,
		nil,
		nil,
		map[string]any{"retailerId": retailerID},
	); err != nil {
		return nil, err
	}

	w.notifyRetailer(models.EventDisconnectRequested, &request)

	return &request, nil
}

// Approve marks a pending request approved and deactivates the link. A link
// deactivation failure is logged but does not roll back the approval.
func (w *Workflow) Approve(actor *models.Principal, requestID string) (*models.DisconnectRequest, error) {
	request, err := w.loadForProcessing(actor, requestID)
	if err != nil {
		return nil, err
	}

	updated, err := store.UpdateByID(w.store, store.DisconnectRequests, requestID, func(r *models.DisconnectRequest) {
		r.Status = models.DisconnectApproved
		r.ProcessedBy = &actor.UserID
		r.UpdatedAt = time.Now()
	})
	if err != nil {
		return nil, fmt.Errorf("disconnect: approve request: %w", err)
	}

	deactivated, err := w.links.Deactivate(request.CompanyID, request.RetailerID)
	if err != nil || !deactivated {
		w.logger.WithFields(logrus.Fields{
			"requestId":  requestID,
			"companyId":  request.CompanyID,
			"retailerId": request.RetailerID,
			"error":      fmt.Sprint(err),
		}).Warn("link deactivation failed after disconnect approval")
	} else {
		if _, err := w.audit.Record(
			models.ActionRetailerUnlinked,
			actor.UserID,
			models.TargetCompany,
			request.CompanyID,
			nil,
			nil,
			map[string]any{"retailerId": request.RetailerID},
		); err != nil {
			return nil, err
		}
	}

	if _, err := w.audit.Record(
		models.ActionDisconnectApproved,
		actor.UserID,
		models.TargetDisconnectRequest,
		request.CompanyID,
		nil,
		nil,
		map[string]any{"retailerId": request.RetailerID},
	); err != nil {
		return nil, err
	}

	w.notifyRetailer(models.EventDisconnectApproved, updated)

	return updated, nil
}

// Reject marks a pending request rejected. The link is untouched, and the
// company may request again later.
func (w *Workflow) Reject(actor *models.Principal, requestID string) (*models.DisconnectRequest, error) {
	request, err := w.loadForProcessing(actor, requestID)
	if err != nil {
		return nil, err
	}

	updated, err := store.UpdateByID(w.store, store.DisconnectRequests, requestID, func(r *models.DisconnectRequest) {
		r.Status = models.DisconnectRejected
		r.ProcessedBy = &actor.UserID
		r.UpdatedAt = time.Now()
	})
	if err != nil {
		return nil, fmt.Errorf("disconnect: reject request: %w", err)
	}

	if _, err := w.audit.Record(
		models.ActionDisconnectRejected,
		actor.UserID,
		models.TargetDisconnectRequest,
		request.CompanyID,
		nil,
		nil,
		map[string]any{"retailerId": request.RetailerID},
	); err != nil {
		return nil, err
	}

	w.notifyRetailer(models.EventDisconnectRejected, updated)

	return updated, nil
}

// loadForProcessing fetches a request and checks the actor may process it
// and that it is still pending.
func (w *Workflow) loadForProcessing(actor *models.Principal, requestID string) (*models.DisconnectRequest, error) {
	request, err := store.FindByID[models.DisconnectRequest](w.store, store.DisconnectRequests, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	if !actor.Role.CanProcessDisconnects() {
		return nil, ErrForbidden
	}
	if actor.Role == models.RoleRetailerAdmin && !actor.InRetailer(request.RetailerID) {
		return nil, ErrForbidden
	}

	if request.Status != models.DisconnectPending {
		return nil, ErrAlreadyProcessed
	}
	return request, nil
}

// ByID returns a single request.
func (w *Workflow) ByID(requestID string) (*models.DisconnectRequest, error) {
	request, err := store.FindByID[models.DisconnectRequest](w.store, store.DisconnectRequests, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return request, err
}

// ForRetailer returns every request aimed at a retailer.
func (w *Workflow) ForRetailer(retailerID string) ([]models.DisconnectRequest, error) {
	return store.FindAllBy(w.store, store.DisconnectRequests, func(r models.DisconnectRequest) bool {
		return r.RetailerID == retailerID
	})
}

// ForCompany returns every request opened by a company.
func (w *Workflow) ForCompany(companyID string) ([]models.DisconnectRequest, error) {
	return store.FindAllBy(w.store, store.DisconnectRequests, func(r models.DisconnectRequest) bool {
		return r.CompanyID == companyID
	})
}

// All returns every request.
func (w *Workflow) All() ([]models.DisconnectRequest, error) {
	return store.ReadAll[models.DisconnectRequest](w.store, store.DisconnectRequests)
}

func (w *Workflow) notifyRetailer(event models.WebhookEvent, request *models.DisconnectRequest) {
	retailer, err := store.FindByID[models.Retailer](w.store, store.Retailers, request.RetailerID)
	if err != nil {
		w.logger.WithFields(logrus.Fields{
			"requestId":  request.ID,
			"retailerId": request.RetailerID,
		}).Warn("skipping disconnect notification, retailer not loadable")
		return
	}
	w.dispatcher.TriggerDisconnect(webhook.Target{
		ID:         retailer.ID,
		Name:       retailer.Name,
		WebhookURL: retailer.WebhookURL,
	}, event, request)
}
