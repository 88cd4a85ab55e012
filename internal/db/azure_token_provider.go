package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// AzureServicePrincipalProvider acquires Entra ID tokens with service
// principal credentials. Scheduled imports running from pipelines use this
// path; the secret comes from AZURE_CLIENT_SECRET, never from flags or the
// project file.
type AzureServicePrincipalProvider struct {
	tenantID     string
	clientID     string
	clientSecret string
	credential   *azidentity.ClientSecretCredential
}

// NewAzureServicePrincipalProvider creates a token provider for service
// principal auth. All three parameters are required.
func NewAzureServicePrincipalProvider(tenantID, clientID, clientSecret string) (*AzureServicePrincipalProvider, error) {
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("azure service principal requires tenantID, clientID, and clientSecret")
	}

	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	return &AzureServicePrincipalProvider{
		tenantID:     tenantID,
		clientID:     clientID,
		clientSecret: clientSecret,
		credential:   cred,
	}, nil
}

func (p *AzureServicePrincipalProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{AzurePostgreSQLScope},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (p *AzureServicePrincipalProvider) String() string {
	return fmt.Sprintf("AzureServicePrincipal(tenant=%s, client=%s)", p.tenantID, p.clientID)
}

// AzureDefaultCredentialProvider falls back to the DefaultAzureCredential
// chain: environment variables, workload identity, managed identity, then
// the local az CLI. Covers both imports running inside Azure and a
// developer's workstation without separate configuration.
type AzureDefaultCredentialProvider struct {
	credential azcore.TokenCredential
}

func NewAzureDefaultCredentialProvider() (*AzureDefaultCredentialProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}

	return &AzureDefaultCredentialProvider{
		credential: cred,
	}, nil
}

func (p *AzureDefaultCredentialProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{AzurePostgreSQLScope},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (p *AzureDefaultCredentialProvider) String() string {
	return "AzureDefaultCredential"
}
