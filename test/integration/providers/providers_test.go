package integrationtests

import (
	"testing"

	"healthfirst/pkg/model"
	"healthfirst/test/common"
)

const ServiceName = "providers-integration-tests"

func TestProvidersAPI(t *testing.T) {
	suite := common.NewIntegrationSuite(t, ServiceName)
	defer suite.Teardown(t)

	t.Run("GetByID", func(t *testing.T) { testGetByID(t, suite) })
	t.Run("GetByUserID", func(t *testing.T) { testGetByUserID(t, suite) })
	t.Run("GetBySpecialization", func(t *testing.T) { testGetBySpecialization(t, suite) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, suite) })
}

func cleanProviders(t *testing.T, suite *common.IntegrationSuite) {
	t.Helper()
	suite.Mongo.CleanCollection(t, common.ProvidersCollection)
}

func seed(t *testing.T, suite *common.IntegrationSuite, userID, lastName, specialization string) string {
	t.Helper()
	return suite.Mongo.SeedProvider(t, model.Provider{
		UserID:         userID,
		FirstName:      "Noa",
		LastName:       lastName,
		Specialization: specialization,
	})
}

func testGetByID(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanProviders(t, suite)
	id := seed(t, suite, "607f1f77bcf86cd799439001", "Mizrahi", "Cardiology")

	resp1, err1 := suite.Providers.GetByID(id)
	resp := common.RequireResponse(t, resp1, err1)
	common.AssertStatusCode(t, resp, 200)

	provider, err := suite.Providers.DecodeProvider(resp)
	if err != nil {
		t.Fatalf("failed to decode provider: %v", err)
	}
	if provider.ID != id {
		t.Errorf("provider ID = %s, want %s", provider.ID, id)
	}
	if provider.Specialization != "Cardiology" {
		t.Errorf("specialization = %s", provider.Specialization)
	}
}

func testGetByUserID(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanProviders(t, suite)
	userID := "607f1f77bcf86cd799439002"
	id := seed(t, suite, userID, "Peretz", "Dermatology")

	resp2, err2 := suite.Providers.GetByUserID(userID)
	resp := common.RequireResponse(t, resp2, err2)
	common.AssertStatusCode(t, resp, 200)

	provider, err := suite.Providers.DecodeProvider(resp)
	if err != nil {
		t.Fatalf("failed to decode provider: %v", err)
	}
	if provider.ID != id {
		t.Errorf("provider ID = %s, want %s", provider.ID, id)
	}
}

func testGetBySpecialization(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanProviders(t, suite)
	seed(t, suite, "607f1f77bcf86cd799439003", "Azulay", "Cardiology")
	seed(t, suite, "607f1f77bcf86cd799439004", "Biton", "Cardiology")
	seed(t, suite, "607f1f77bcf86cd799439005", "Cohen", "Dermatology")

	resp3, err3 := suite.Providers.GetBySpecialization("cardiology")
	resp := common.RequireResponse(t, resp3, err3)
	common.AssertStatusCode(t, resp, 200)

	providers, err := suite.Providers.DecodeProviders(resp)
	if err != nil {
		t.Fatalf("failed to decode providers: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("matched %d providers, want 2", len(providers))
	}
	// Results come back sorted by last name.
	if providers[0].LastName != "Azulay" || providers[1].LastName != "Biton" {
		t.Errorf("unexpected order: %s, %s", providers[0].LastName, providers[1].LastName)
	}
}

func testNotFound(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanProviders(t, suite)

	resp4, err4 := suite.Providers.GetByID("507f1f77bcf86cd799439011")
	resp := common.RequireResponse(t, resp4, err4)
	common.AssertStatusCode(t, resp, 404)
	common.AssertContains(t, resp, "not found")

	resp5, err5 := suite.Providers.GetByUserID("507f1f77bcf86cd799439012")
	resp = common.RequireResponse(t, resp5, err5)
	common.AssertStatusCode(t, resp, 404)
}
