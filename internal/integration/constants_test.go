package integration_test

const (
	// Platform processor account
	TestPlatformSecretKey      = "sk_test_51PlatformAccountKey000000000"
	TestPlatformPublishableKey = "pk_test_51PlatformAccountKey000000000"
	TestPlatformWebhookSecret  = "whsec_platformWebhookSecret0000000000000000"

	TestEncryptionKey = "integration-master-secret"

	// Service related constants
	TestServiceID    = "svc_audit"
	TestServiceSlug  = "website-audit"
	TestServiceTitle = "Website audit"
	TestServicePrice = "199.00"

	// Integrator related constants
	TestProviderSlug           = "acme"
	TestProviderName           = "Acme"
	TestProviderSecret         = "acme-integration-secret"
	TestProviderAPIKey         = TestProviderSlug + "." + TestProviderSecret
	TestProviderSecretKey      = "sk_test_51AcmeOwnAccountKey0000000000"
	TestProviderPublishableKey = "pk_test_51AcmeOwnAccountKey0000000000"
	TestProviderWebhookSecret  = "whsec_acmeWebhookSecret00000000000000000000"
	TestProviderSuccessURL     = "https://acme.example.com/thanks/{orderId}"
	TestProviderCancelURL      = "https://acme.example.com/cart"
)
