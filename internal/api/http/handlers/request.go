package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/complexorj/staff-dashboard/internal/locale"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// decodeBody decodes the JSON body into dst keeping numbers as json.Number. An
// empty body decodes as an empty object.
func decodeBody(c *fiber.Ctx, dst any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError(apperrors.MsgInvalidPayload, nil)
	}
	return nil
}

func decodeObject(c *fiber.Ctx) (map[string]any, error) {
	var input map[string]any
	if err := decodeBody(c, &input); err != nil {
		return nil, err
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}

// validateStruct runs the struct tags of dst and reports failures under messageID.
func validateStruct(dst any, messageID string) error {
	err := getValidator().Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError(messageID, nil)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return apperrors.NewDomainError("VALIDATION_FAILED", messageID, fiber.StatusBadRequest, nil).
		WithDetails(map[string]any{"fields": fields})
}

// pathParam returns the URL-unescaped route parameter.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// pathID parses :id; a non-numeric id addresses no row.
func pathID(c *fiber.Ctx, notFound error) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, notFound
	}
	return id, nil
}

func entityData(messageID string) map[string]any {
	return map[string]any{"Entity": apperrors.MessageRef(messageID)}
}

func msg(c *fiber.Ctx, messageID string, data map[string]any) string {
	return locale.T(c, messageID, data)
}
