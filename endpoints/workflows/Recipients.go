package workflows

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/endpoints"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
	val "github.com/go-ozzo/ozzo-validation"
)

type SwitchModeDto struct {
	Mode string `json:"mode"`
}

func (dto SwitchModeDto) Validate() error {
	return val.ValidateStruct(&dto,
		val.Field(&dto.Mode, val.Required, val.In("mobile", "bank")),
	)
}

// SwitchDeliveryMode flips the batch between bank and mobile delivery.
// Every recipient already entered is re-keyed to the new variant; fields
// the variant cannot carry are discarded, not hidden.
func SwitchDeliveryMode(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_switch_mode.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	var dto SwitchModeDto
	rt.BindJSON(&dto)
	if rt.Error != nil {
		rt.Ef(400, "could not bind body: %v", rt.Error)
		return
	}
	if err := dto.Validate(); err != nil {
		rt.E(http.StatusBadRequest, err)
		return
	}

	if err := s.SwitchMode(workflow.DeliveryMode(dto.Mode)); err != nil {
		rt.Ef(409, "cannot switch delivery mode: %v", err)
		return
	}

	c.JSON(200, stateView(s))
	rt.EndBlock()
}

type SetRecipientDto struct {
	// mobile variant
	Phone string `json:"phone"`

	// bank variant
	BankId        string `json:"bankId"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
}

// SetRecipient records where one bill's funds should land, in the batch's
// current delivery mode. The bank's SWIFT code is resolved from the
// directory, never taken from the request.
func SetRecipient(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_set_recipient.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	var dto SetRecipientDto
	rt.BindJSON(&dto)
	if rt.Error != nil {
		rt.Ef(400, "could not bind body: %v", rt.Error)
		return
	}

	details, err := buildRecipient(rt, s, dto)
	if err != nil {
		rt.Ef(400, "invalid recipient: %v", err)
		return
	}

	if err := s.SetRecipient(c.Param("billId"), details); err != nil {
		rt.Ef(409, "cannot set recipient: %v", err)
		return
	}

	c.JSON(200, stateView(s))
	rt.EndBlock()
}

func buildRecipient(rt *kernel.RequestRuntime, s *workflow.Session, dto SetRecipientDto) (workflow.RecipientDetails, error) {
	switch s.Mode {
	case workflow.ModeMobile:
		if strings.TrimSpace(dto.Phone) == "" {
			return workflow.RecipientDetails{}, fmt.Errorf("phone number is required")
		}
		return workflow.RecipientDetails{
			Mode: workflow.ModeMobile,
			Mobile: &workflow.MobileRecipient{
				Phone: workflow.FormatPhone(rt.AppRuntime.CountryCode, dto.Phone),
			},
		}, nil

	case workflow.ModeBank:
		if dto.BankId == "" {
			return workflow.RecipientDetails{}, fmt.Errorf("recipient bank is required")
		}
		banks, err := endpoints.GetBanks(rt, rt.AppRuntime.CountryCode, "")
		if err != nil {
			return workflow.RecipientDetails{}, err
		}
		var bank *workflow.Bank
		for i := range banks {
			if banks[i].ID == dto.BankId {
				bank = &banks[i]
				break
			}
		}
		if bank == nil {
			return workflow.RecipientDetails{}, fmt.Errorf("bank '%s' not found", dto.BankId)
		}
		return workflow.RecipientDetails{
			Mode: workflow.ModeBank,
			Bank: &workflow.BankRecipient{
				BankID:        bank.ID,
				BankName:      bank.Name,
				Swift:         bank.SwiftCode,
				AccountNumber: dto.AccountNumber,
				AccountName:   dto.AccountName,
			},
		}, nil

	default:
		return workflow.RecipientDetails{}, fmt.Errorf("the selected source does not take recipient details")
	}
}

type contactDetailsPayload struct {
	BankAccountNumber string `json:"bank_account_number"`
	BankAccountName   string `json:"bank_account_name"`
	BankName          string `json:"bank_name"`
	PhoneNumbers      []struct {
		Type   string `json:"type"`
		Number string `json:"number"`
	} `json:"phone_numbers"`
}

func getContactPaymentDetails(rt *kernel.RequestRuntime, contactId string) (*contactDetailsPayload, error) {
	rt.NewChildTracer("workflow_autofill.lookup").Advance()

	status, body, err := endpoints.FoRequest(rt, http.MethodGet,
		fmt.Sprintf("/v1/contacts/%s/payment-details", contactId), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, rt.MakeErrorf("finops backend returned a non-OK status code: %d", status)
	}

	var payload contactDetailsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, rt.MakeErrorf("could not unmarshal response body: %v", err)
	}

	rt.EndBlock()
	return &payload, nil
}

// AutofillRecipient pulls routing details from the bill's linked contact.
// A contact with nothing usable yields an explicit 404-style alert; the
// operator is never left staring at a silently empty field.
func AutofillRecipient(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_autofill.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	bill, found := s.Bill(c.Param("billId"))
	if !found {
		rt.Ef(404, "bill '%s' is not part of this workflow", c.Param("billId"))
		return
	}
	if bill.ContactID == "" {
		rt.Ef(404, "bill '%s' has no linked contact to auto-fill from", bill.ID)
		return
	}

	contact, err := getContactPaymentDetails(rt, bill.ContactID)
	if err != nil {
		if errors.Is(err, endpoints.ErrUpstreamUnauthorized) {
			rt.Ef(http.StatusUnauthorized, "session expired, re-authorize")
			return
		}
		rt.Ef(500, "contact lookup failed: %v", err)
		return
	}

	var details workflow.RecipientDetails
	switch s.Mode {
	case workflow.ModeMobile:
		phone := ""
		for _, p := range contact.PhoneNumbers {
			if p.Number != "" {
				phone = p.Number
				break
			}
		}
		if phone == "" {
			rt.Ef(404, "contact has no phone number on file")
			return
		}
		details = workflow.RecipientDetails{
			Mode: workflow.ModeMobile,
			Mobile: &workflow.MobileRecipient{
				Phone:     workflow.FormatPhone(rt.AppRuntime.CountryCode, phone),
				ContactID: bill.ContactID,
			},
		}

	case workflow.ModeBank:
		if contact.BankAccountNumber == "" {
			rt.Ef(404, "contact has no bank details on file")
			return
		}
		banks, err := endpoints.GetBanks(rt, rt.AppRuntime.CountryCode, "")
		if err != nil {
			rt.Ef(500, "could not load bank directory: %v", err)
			return
		}

		recipient := &workflow.BankRecipient{
			AccountNumber: contact.BankAccountNumber,
			AccountName:   contact.BankAccountName,
		}
		if bank, matched := workflow.MatchBank(banks, contact.BankName); matched {
			recipient.BankID = bank.ID
			recipient.BankName = bank.Name
			recipient.Swift = bank.SwiftCode
		} else {
			// keep the unmatched name visible for the operator to resolve
			recipient.RawBankText = contact.BankName
		}
		details = workflow.RecipientDetails{Mode: workflow.ModeBank, Bank: recipient}

	default:
		rt.Ef(409, "the selected source does not take recipient details")
		return
	}

	if err := s.SetRecipient(bill.ID, details); err != nil {
		rt.Ef(409, "cannot set recipient: %v", err)
		return
	}

	c.JSON(200, stateView(s))
	rt.EndBlock()
}
