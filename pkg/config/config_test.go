package config

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsNonPositiveConcurrency(t *testing.T) {
	c := Default()
	c.MaxConcurrentTasks = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for zero max_concurrent_tasks")
	}
}

func TestValidateRejectsMaxTimeoutBelowDefault(t *testing.T) {
	c := Default()
	c.MaxTimeout = c.DefaultTimeout / 2
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for max_timeout below default_timeout")
	}
}

func TestValidateRejectsEmptyPolicyDir(t *testing.T) {
	c := Default()
	c.PolicyDir = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for empty policy_dir")
	}
}
