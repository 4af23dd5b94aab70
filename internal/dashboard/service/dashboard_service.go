package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ridloal/product-dashboard/internal/dashboard/dialog"
	"github.com/ridloal/product-dashboard/internal/notification"
	"github.com/ridloal/product-dashboard/internal/permission"
	"github.com/ridloal/product-dashboard/internal/platform/logger"
	"github.com/ridloal/product-dashboard/internal/platform/metrics"
	"github.com/ridloal/product-dashboard/internal/product/domain"
	"github.com/ridloal/product-dashboard/internal/product/repository"
	"github.com/ridloal/product-dashboard/internal/product/validation"
)

var (
	ErrFetchFailed        = errors.New("failed to fetch products")
	ErrOperationFailed    = errors.New("product operation failed")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrMutationInProgress = errors.New("another product operation is in progress")
	ErrValidation         = errors.New("product form is invalid")
	ErrNoOpenForm         = errors.New("no product form is open")
	ErrNoPendingDelete    = errors.New("no delete confirmation is open")
	ErrDeletePending      = errors.New("a delete confirmation is already open")
)

// Notification texts.
const (
	MsgLoaded  = "Products loaded successfully"
	MsgCreated = "Product created successfully"
	MsgUpdated = "Product updated successfully"
	MsgDeleted = "Product deleted successfully"

	MsgFetchFailed      = "Failed to fetch products."
	MsgCreateFailed     = "Failed to add product."
	MsgUpdateFailed     = "Failed to update product."
	MsgDeleteFailed     = "Failed to delete product."
	MsgNotFound         = "Product not found."
	MsgPermissionDenied = "You do not have permission to perform this action."
	MsgBusy             = "Please wait for the current operation to finish."
)

const DeleteDialogTitle = "Delete Product"

type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

// FormDialog is the open create/edit modal. Initial is nil in create mode.
type FormDialog struct {
	Mode      FormMode               `json:"mode"`
	ProductID int64                  `json:"product_id,omitempty"`
	Initial   *domain.ProductFields  `json:"initial,omitempty"`
	Values    domain.ProductForm     `json:"values"`
	Errors    validation.FieldErrors `json:"errors,omitempty"`
}

func (f FormDialog) Title() string {
	if f.Mode == FormEdit {
		return "Edit Product"
	}
	return "Create Product"
}

type ConfirmationView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ProductID   int64  `json:"product_id"`
}

// DashboardView is a point-in-time copy of the dashboard state, safe to render.
type DashboardView struct {
	Products     []domain.Product          `json:"products"`
	Permissions  []permission.Capability   `json:"permissions"`
	Loading      bool                      `json:"loading"`
	Mutating     bool                      `json:"mutating"`
	Notification notification.Notification `json:"notification"`
	Form         *FormDialog               `json:"form,omitempty"`
	Confirmation *ConfirmationView         `json:"confirmation,omitempty"`
}

// Busy reports whether the progress indicator is shown.
func (v DashboardView) Busy() bool { return v.Loading || v.Mutating }

func (v DashboardView) Can(c permission.Capability) bool { return permission.Has(v.Permissions, c) }

type DashboardService interface {
	Mount(ctx context.Context) error
	Submit(ctx context.Context, input domain.ProductInput) (*domain.Product, error)
	OpenCreate() error
	OpenEdit(id int64) error
	CloseForm()
	SubmitForm(ctx context.Context, form domain.ProductForm) (validation.FieldErrors, error)
	RequestDelete(id int64) error
	ConfirmDelete(ctx context.Context) error
	DeleteProduct(ctx context.Context, id int64) error
	CancelDelete() error
	Snapshot() DashboardView
	DismissNotification()
	Audit(ctx context.Context) (AuditReport, error)
}

type dashboardServiceImpl struct {
	repo     repository.ProductRepository
	perms    permission.Source
	notifier *notification.Channel

	mu          sync.Mutex
	products    []domain.Product
	permissions []permission.Capability
	loading     bool
	mutating    bool
	version     uint64 // bumped whenever the working list changes
	form        *FormDialog
	confirm     *dialog.Confirmation
	confirmID   int64
}

func NewDashboardService(repo repository.ProductRepository, perms permission.Source, notifier *notification.Channel) DashboardService {
	return &dashboardServiceImpl{
		repo:     repo,
		perms:    perms,
		notifier: notifier,
	}
}

// Mount loads permissions and, when READ is granted, the product list.
func (s *dashboardServiceImpl) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.mutating {
		s.mu.Unlock()
		return ErrMutationInProgress
	}
	s.loading = true
	s.mu.Unlock()

	perms, err := s.perms.FetchPermissions(ctx)
	if err != nil {
		logger.Error("DashboardService.Mount: failed to fetch permissions", err, nil)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.loading = false
		s.notifier.Error(MsgFetchFailed)
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	s.mu.Lock()
	s.permissions = perms
	if !permission.Has(perms, permission.Read) {
		s.loading = false
		s.notifier.Success(MsgLoaded)
		s.mu.Unlock()
		logger.Warn("DashboardService.Mount: READ not granted, product list not loaded")
		return nil
	}
	s.mu.Unlock()

	products, err := s.repo.FetchAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		logger.Error("DashboardService.Mount: failed to fetch products", err, nil)
		s.notifier.Error(MsgFetchFailed)
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	s.replaceLocked(products)
	s.notifier.Success(MsgLoaded)
	return nil
}

func (s *dashboardServiceImpl) Submit(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	switch in := input.(type) {
	case domain.CreateProduct:
		return s.create(ctx, in)
	case domain.EditProduct:
		return s.update(ctx, in)
	default:
		return nil, fmt.Errorf("unsupported product input %T", input)
	}
}

func (s *dashboardServiceImpl) create(ctx context.Context, in domain.CreateProduct) (*domain.Product, error) {
	if err := s.beginMutation(permission.Create); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, in.Fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutating = false
	if err != nil {
		return nil, s.failLocked("Create", MsgCreateFailed, err)
	}
	s.products = append(s.products, *created)
	s.changedLocked()
	s.notifier.Success(MsgCreated)
	return created, nil
}

func (s *dashboardServiceImpl) update(ctx context.Context, in domain.EditProduct) (*domain.Product, error) {
	if err := s.beginMutation(permission.Update); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, in.Fields.WithID(in.ID))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutating = false
	if err != nil {
		return nil, s.failLocked("Update", MsgUpdateFailed, err)
	}
	// The echo is authoritative; the entry is replaced wholesale.
	for i := range s.products {
		if s.products[i].ID == updated.ID {
			s.products[i] = *updated
		}
	}
	s.changedLocked()
	s.notifier.Success(MsgUpdated)
	return updated, nil
}

func (s *dashboardServiceImpl) remove(ctx context.Context, id int64) error {
	if err := s.beginMutation(permission.Delete); err != nil {
		return err
	}

	err := s.repo.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutating = false
	if err != nil {
		return s.failLocked("Delete", MsgDeleteFailed, err)
	}
	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	s.changedLocked()
	s.notifier.Success(MsgDeleted)
	return nil
}

func (s *dashboardServiceImpl) beginMutation(required permission.Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !permission.Has(s.permissions, required) {
		s.notifier.Error(MsgPermissionDenied)
		return fmt.Errorf("%w: %s required", ErrPermissionDenied, required)
	}
	// A load in flight would overwrite the reconciled list with its older result.
	if s.mutating || s.loading {
		s.notifier.Error(MsgBusy)
		return ErrMutationInProgress
	}
	s.mutating = true
	return nil
}

// failLocked reports a failed store call and wraps its cause.
func (s *dashboardServiceImpl) failLocked(op, msg string, err error) error {
	logger.Error("DashboardService."+op+": store call failed", err, nil)
	if errors.Is(err, repository.ErrProductNotFound) {
		msg = MsgNotFound
	}
	s.notifier.Error(msg)
	return fmt.Errorf("%w: %w", ErrOperationFailed, err)
}

func (s *dashboardServiceImpl) OpenCreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !permission.Has(s.permissions, permission.Create) {
		return ErrPermissionDenied
	}
	s.form = &FormDialog{Mode: FormCreate}
	return nil
}

func (s *dashboardServiceImpl) OpenEdit(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !permission.Has(s.permissions, permission.Update) {
		return ErrPermissionDenied
	}
	p, ok := s.findLocked(id)
	if !ok {
		return repository.ErrProductNotFound
	}
	initial := p.Fields()
	s.form = &FormDialog{
		Mode:      FormEdit,
		ProductID: id,
		Initial:   &initial,
		Values:    validation.FormFromProduct(initial),
	}
	return nil
}

func (s *dashboardServiceImpl) CloseForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = nil
}

// SubmitForm validates the open form and dispatches it. Field violations keep the
// form open and are returned together with ErrValidation.
func (s *dashboardServiceImpl) SubmitForm(ctx context.Context, form domain.ProductForm) (validation.FieldErrors, error) {
	s.mu.Lock()
	if s.form == nil {
		s.mu.Unlock()
		return nil, ErrNoOpenForm
	}
	fields, fieldErrs := validation.ValidateProduct(form)
	if fieldErrs.HasErrors() {
		s.form.Values = form
		s.form.Errors = fieldErrs
		s.mu.Unlock()
		return fieldErrs, ErrValidation
	}
	var input domain.ProductInput = domain.CreateProduct{Fields: fields}
	if s.form.Mode == FormEdit {
		input = domain.EditProduct{ID: s.form.ProductID, Fields: fields}
	}
	s.form.Values = form
	s.form.Errors = nil
	s.mu.Unlock()

	_, err := s.Submit(ctx, input)
	if errors.Is(err, ErrMutationInProgress) {
		return nil, err
	}
	s.CloseForm()
	return nil, err
}

func (s *dashboardServiceImpl) RequestDelete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !permission.Has(s.permissions, permission.Delete) {
		return ErrPermissionDenied
	}
	if s.confirm != nil {
		return ErrDeletePending
	}
	c, err := s.deleteConfirmationLocked(id)
	if err != nil {
		return err
	}
	s.confirmID = id
	s.confirm = c
	return nil
}

func (s *dashboardServiceImpl) deleteConfirmationLocked(id int64) (*dialog.Confirmation, error) {
	p, ok := s.findLocked(id)
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return dialog.NewConfirmation(
		DeleteDialogTitle,
		fmt.Sprintf("Are you sure you want to delete %q?", p.Name),
		func(ctx context.Context) error { return s.remove(ctx, id) },
		func() { logger.Debug("DashboardService: delete of product %d cancelled", id) },
	), nil
}

// ConfirmDelete resolves the open confirmation. While another operation runs the
// confirmation stays open so it can be confirmed again.
func (s *dashboardServiceImpl) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	if s.confirm == nil {
		s.mu.Unlock()
		return ErrNoPendingDelete
	}
	if s.mutating || s.loading {
		s.notifier.Error(MsgBusy)
		s.mu.Unlock()
		return ErrMutationInProgress
	}
	c := s.confirm
	s.confirm = nil
	s.confirmID = 0
	s.mu.Unlock()

	return c.Confirm(ctx)
}

// DeleteProduct opens and confirms a delete confirmation of its own, leaving the
// dialog shown on the dashboard untouched.
func (s *dashboardServiceImpl) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	if !permission.Has(s.permissions, permission.Delete) {
		s.mu.Unlock()
		return ErrPermissionDenied
	}
	c, err := s.deleteConfirmationLocked(id)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return c.Confirm(ctx)
}

func (s *dashboardServiceImpl) CancelDelete() error {
	c := s.takeConfirmation()
	if c == nil {
		return ErrNoPendingDelete
	}
	return c.Cancel()
}

// takeConfirmation closes the open confirmation dialog and hands it to the caller.
func (s *dashboardServiceImpl) takeConfirmation() *dialog.Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.confirm
	s.confirm = nil
	s.confirmID = 0
	return c
}

func (s *dashboardServiceImpl) Snapshot() DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := DashboardView{
		Products:     append([]domain.Product(nil), s.products...),
		Permissions:  append([]permission.Capability(nil), s.permissions...),
		Loading:      s.loading,
		Mutating:     s.mutating,
		Notification: s.notifier.Current(),
	}
	if s.form != nil {
		f := *s.form
		if f.Initial != nil {
			initial := *f.Initial
			f.Initial = &initial
		}
		if f.Errors != nil {
			f.Errors = make(validation.FieldErrors, len(s.form.Errors))
			for k, v := range s.form.Errors {
				f.Errors[k] = v
			}
		}
		view.Form = &f
	}
	if s.confirm != nil {
		view.Confirmation = &ConfirmationView{
			Title:       s.confirm.Title,
			Description: s.confirm.Description,
			ProductID:   s.confirmID,
		}
	}
	return view
}

func (s *dashboardServiceImpl) DismissNotification() {
	s.notifier.Close()
}

func (s *dashboardServiceImpl) findLocked(id int64) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *dashboardServiceImpl) replaceLocked(products []domain.Product) {
	s.products = append([]domain.Product(nil), products...)
	s.changedLocked()
}

func (s *dashboardServiceImpl) changedLocked() {
	s.version++
	metrics.SetWorkingListSize(len(s.products))
}
