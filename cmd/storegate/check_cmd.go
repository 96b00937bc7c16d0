package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"storegate/internal/config"
	"storegate/internal/domain"
	"storegate/internal/infra/authority"
)

type checkOutput struct {
	Domain           string `json:"domain"`
	Valid            bool   `json:"valid"`
	GloballyVerified bool   `json:"globally_verified"`
	Reason           string `json:"reason,omitempty"`
	CompanyName      string `json:"company_name,omitempty"`
	AccountStatus    string `json:"account_status,omitempty"`
	Subscription     string `json:"subscription_status,omitempty"`
	SubscriptionEnds string `json:"subscription_end_date,omitempty"`
	CheckedAt        string `json:"checked_at"`
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	cfg := config.FromEnv()
	var dom string
	var outPath string
	fs.StringVar(&dom, "domain", "", "storefront domain to verify")
	fs.StringVar(&cfg.AuthorityBaseURL, "authority", cfg.AuthorityBaseURL, "license authority base URL")
	fs.StringVar(&cfg.LicenseKey, "license-key", cfg.LicenseKey, "license key presented to the authority")
	fs.StringVar(&outPath, "out", "", "output JSON path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if dom == "" {
		fmt.Fprintln(os.Stderr, "check requires --domain")
		return 1
	}
	if cfg.AuthorityBaseURL == "" || cfg.LicenseKey == "" {
		fmt.Fprintln(os.Stderr, "check requires --authority and --license-key")
		return 1
	}

	client := authority.New(authority.Config{
		BaseURL:    cfg.AuthorityBaseURL,
		APIKey:     cfg.AuthorityAPIKey,
		LicenseKey: cfg.LicenseKey,
		Timeout:    cfg.AuthorityTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AuthorityTimeout+time.Second)
	defer cancel()
	result := client.Check(ctx, domain.NormalizeDomain(dom))

	out := checkOutput{
		Domain:           result.Domain,
		Valid:            result.Valid,
		GloballyVerified: result.GloballyVerified,
		Reason:           string(result.Reason),
		CheckedAt:        result.CheckedAt.UTC().Format(time.RFC3339),
	}
	if result.Client != nil {
		out.CompanyName = result.Client.CompanyName
		out.AccountStatus = result.Client.AccountStatus
		out.Subscription = result.Client.SubscriptionStatus
		if result.Client.SubscriptionEndDate != nil {
			out.SubscriptionEnds = result.Client.SubscriptionEndDate.UTC().Format(time.RFC3339)
		}
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal result: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	if !result.Trusted() {
		return 2
	}
	return 0
}
