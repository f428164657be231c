package service

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/elmasnur/nurcombinator/internal/apperr"
)

var fieldLabels = map[string]string{
	"email":              "E-posta",
	"password":           "Şifre",
	"display_name":       "Görünen ad",
	"bio":                "Hakkında",
	"skills_tags":        "Yetenekler",
	"availability_hours": "Haftalık uygunluk",
	"title":              "Başlık",
	"summary":            "Özet",
	"description":        "Açıklama",
	"type":               "Tür",
	"visibility":         "Görünürlük",
	"tags":               "Etiketler",
	"cover_image_url":    "Kapak görseli",
	"commitment":         "Taahhüt",
	"call_type":          "Çağrı türü",
	"location_mode":      "Çalışma şekli",
	"status":             "Durum",
	"links":              "Bağlantılar",
	"target_type":        "Şikâyet hedefi",
	"target_id":          "Şikâyet hedefi",
	"reason":             "Gerekçe",
	"role":               "Rol",
	"trust_level":        "Güven seviyesi",
	"main_metric_name":   "Metrik adı",
	"main_metric_value":  "Metrik değeri",
	"deliverable_link":   "Çıktı bağlantısı",
	"blocker":            "Engel",
	"help_request":       "Yardım talebi",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// known accepts enum values whose type reports them valid.
	_ = v.RegisterValidation("known", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(interface{ Valid() bool })
		return ok && e.Valid()
	})
	_ = v.RegisterValidation("weblink", func(fl validator.FieldLevel) bool {
		return isWebURL(fl.Field().String())
	})
	return v
}

// check validates in and converts the first failure into a user-facing
// error.
func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.MalformedInput, err)
	}
	return fieldError(verrs[0])
}

func fieldError(fe validator.FieldError) error {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	unit := "karakter"
	if fe.Kind() == reflect.Slice {
		unit = "öğe"
	}

	switch fe.Tag() {
	case "required":
		return apperr.Missing(fmt.Sprintf("%s zorunludur.", label))
	case "email":
		return apperr.Invalid("Geçerli bir e-posta adresi girin.")
	case "min":
		return apperr.Invalid(fmt.Sprintf("%s en az %s %s olmalı.", label, fe.Param(), unit))
	case "max":
		return apperr.Invalid(fmt.Sprintf("%s en fazla %s %s olabilir.", label, fe.Param(), unit))
	case "url", "weblink":
		return apperr.Invalid(fmt.Sprintf("%s geçerli bir http(s) bağlantısı olmalı.", label))
	case "known", "oneof":
		return apperr.Invalid(fmt.Sprintf("%s için geçersiz değer.", label))
	case "gte", "lte":
		return apperr.Invalid(fmt.Sprintf("%s izin verilen aralığın dışında.", label))
	}
	return apperr.Invalid(fmt.Sprintf("%s geçersiz.", label))
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// normalizeTags splits comma separated entries, trims them and drops empty
// and repeated tags, keeping the first spelling.
func normalizeTags(in []string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, raw := range in {
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			key := strings.ToLower(t)
			if t == "" || seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, t)
		}
	}
	return tags
}
