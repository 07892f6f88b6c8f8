package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/filevault/pkg/rule"
)

// checkInRequest 模拟入库提交请求的校验场景.
type checkInRequest struct {
	User  string   `rule:"required,email"`
	Paths []string `rule:"required,min=1,dive,required"`
}

func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Fatal("Engine() returned nil")
	}
}

func TestValidateStruct(t *testing.T) {
	valid := checkInRequest{
		User:  "alice@example.com",
		Paths: []string{"/vault/docs/a.txt"},
	}
	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("valid request: unexpected error %v", err)
	}

	missingUser := checkInRequest{Paths: []string{"/vault/docs/a.txt"}}
	if err := rule.ValidateStruct(missingUser); err == nil {
		t.Error("missing user: expected error, got nil")
	}

	emptyPaths := checkInRequest{User: "alice@example.com", Paths: []string{}}
	if err := rule.ValidateStruct(emptyPaths); err == nil {
		t.Error("empty paths: expected error, got nil")
	}
}

func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("alice@example.com", "required,email"); err != nil {
		t.Errorf("valid email: unexpected error %v", err)
	}

	if err := rule.ValidateVar("not-an-email", "required,email"); err == nil {
		t.Error("invalid email: expected error, got nil")
	}

	if err := rule.ValidateVar(3, "min=1,max=16"); err != nil {
		t.Errorf("valid concurrency: unexpected error %v", err)
	}

	if err := rule.ValidateVar(0, "min=1,max=16"); err == nil {
		t.Error("zero concurrency: expected error, got nil")
	}
}

func TestValidateVarAbsPath(t *testing.T) {
	if err := rule.ValidateVar("/vault/docs", "required,abspath"); err != nil {
		t.Errorf("absolute path: unexpected error %v", err)
	}

	if err := rule.ValidateVar("vault/docs", "required,abspath"); err == nil {
		t.Error("relative path: expected error, got nil")
	}

	if err := rule.ValidateVar("", "required,abspath"); err == nil {
		t.Error("empty path: expected error, got nil")
	}
}

func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("hex64", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 64 {
			return false
		}

		for _, r := range s {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				return false
			}
		}

		return true
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	checksum := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if err := rule.ValidateVar(checksum, "hex64"); err != nil {
		t.Errorf("valid checksum: unexpected error %v", err)
	}

	if err := rule.ValidateVar("zzzz", "hex64"); err == nil {
		t.Error("malformed checksum: expected error, got nil")
	}
}

func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("vault_user", "required,email")

	if err := rule.ValidateVar("bob@example.com", "vault_user"); err != nil {
		t.Errorf("valid user via alias: unexpected error %v", err)
	}

	if err := rule.ValidateVar("bob", "vault_user"); err == nil {
		t.Error("invalid user via alias: expected error, got nil")
	}
}
