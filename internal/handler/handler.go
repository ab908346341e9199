package handler // handler holds the HTTP boundary: binding, scope lookups and error mapping

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/middleware"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate reports the first failing fields as a Validation error.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return service.Validation("invalid request body")
	}
	var fields []string
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
	}
	return service.Validation("invalid field(s): %s", strings.Join(fields, ", "))
}

// bind decodes the body into dst and runs struct validation when a
// validator is registered.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return service.Validation("invalid request body")
	}
	if c.Echo().Validator != nil {
		if err := c.Validate(dst); err != nil {
			return err
		}
	}
	return nil
}

// respondError is the single place service errors become HTTP responses.
// Unknown and upstream errors are logged and answered with a generic 500.
func respondError(c echo.Context, err error) error {
	var se *service.Error
	errors.As(err, &se)
	switch service.KindOf(err) {
	case service.KindValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": message(se, "invalid request")})
	case service.KindUnauthorized:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": message(se, "unauthorized")})
	case service.KindForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case service.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": message(se, "not found")})
	case service.KindConflict:
		body := echo.Map{"error": message(se, "conflict")}
		if se != nil && se.ExistingID != 0 {
			body["existing_id"] = se.ExistingID
		}
		return c.JSON(http.StatusConflict, body)
	case service.KindUpstream:
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": message(se, "internal server error")})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

func message(se *service.Error, fallback string) string {
	if se == nil || se.Message == "" {
		return fallback
	}
	return se.Message
}

// principal returns the caller stored by the auth middleware.  Routes
// without JWTAuth never call it.
func principal(c echo.Context) rbac.Principal {
	p, _ := middleware.Principal(c)
	return p
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, service.Validation("invalid %s", name)
	}
	return id, nil
}

func queryInt(c echo.Context, name string, def int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// uploads collects the files of a multipart field as service uploads.  A
// request that is not multipart yields no files.
func uploads(c echo.Context, field string) ([]service.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, service.Validation("invalid multipart body")
	}
	headers := form.File[field]
	out := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		out = append(out, service.Upload{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return openPart(fh) },
		})
	}
	return out, nil
}

func openPart(fh *multipart.FileHeader) (io.ReadCloser, error) {
	return fh.Open()
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}
