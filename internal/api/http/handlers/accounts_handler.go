package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfront-dev/storefront/internal/api/dto"
	"github.com/shopfront-dev/storefront/internal/service"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

const accountsPath = "/admin/users"

// AccountsHandler manages admin accounts. Super-admin only.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accounts *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

// List handles GET /admin/users.
func (h *AccountsHandler) List(c *fiber.Ctx) error {
	accounts, err := h.accounts.ListAccounts(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, dto.AccountsView{
		Accounts: dto.NewAccountResponses(accounts),
		Error:    c.Query("error"),
	})
}

// Create handles POST /admin/users. Like Delete, refusals send browsers back
// to the list with the reason in the query string.
func (h *AccountsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, accountsPath, apperrors.NewValidationError("invalid payload", nil))
	}
	account, err := h.accounts.CreateAccount(c.UserContext(), req.Username, req.Password, bool(req.IsSuperAdmin))
	if err != nil {
		return fail(c, accountsPath, err)
	}
	return done(c, accountsPath, fiber.StatusCreated, dto.NewAccountResponse(*account))
}

// Delete handles POST /admin/users/:id/delete. Browsers are sent back to the
// list with the refusal reason in the query string.
func (h *AccountsHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.accounts.DeleteAccount(c.UserContext(), id); err != nil {
		return fail(c, accountsPath, err)
	}
	return done(c, accountsPath, fiber.StatusOK, fiber.Map{"deleted": id})
}
