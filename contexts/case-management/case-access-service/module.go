package caseaccess

import (
	"log/slog"

	httpadapter "lexcase/contexts/case-management/case-access-service/adapters/http"
	"lexcase/contexts/case-management/case-access-service/adapters/memory"
	"lexcase/contexts/case-management/case-access-service/application/commands"
	"lexcase/contexts/case-management/case-access-service/application/queries"
	"lexcase/contexts/case-management/case-access-service/ports"
)

// Module is the case-access composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Cases       ports.CaseStore
	Grants      ports.GrantStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// NewModule wires the case-access use cases and transport handler using
// explicit ports.
func NewModule(deps Dependencies) Module {
	createCase := commands.CreateCaseUseCase{
		Cases:       deps.Cases,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	updateCase := commands.UpdateCaseUseCase{
		Cases:  deps.Cases,
		Grants: deps.Grants,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	requestAccess := commands.RequestAccessUseCase{
		Cases:       deps.Cases,
		Grants:      deps.Grants,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	withdrawAccess := commands.WithdrawAccessUseCase{
		Cases:       deps.Cases,
		Grants:      deps.Grants,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	decideAccess := commands.DecideAccessUseCase{
		Cases:       deps.Cases,
		Grants:      deps.Grants,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	viewCase := queries.ViewCaseUseCase{
		Cases:  deps.Cases,
		Grants: deps.Grants,
		Logger: deps.Logger,
	}
	listCases := queries.ListAccessibleCasesUseCase{
		Cases:  deps.Cases,
		Grants: deps.Grants,
		Logger: deps.Logger,
	}
	browseCases := queries.BrowseCasesUseCase{
		Cases:  deps.Cases,
		Logger: deps.Logger,
	}
	listCaseRequests := queries.ListCaseAccessRequestsUseCase{
		Cases:  deps.Cases,
		Grants: deps.Grants,
		Logger: deps.Logger,
	}
	listMyRequests := queries.ListMyAccessRequestsUseCase{
		Grants: deps.Grants,
		Logger: deps.Logger,
	}

	handler := httpadapter.Handler{
		CreateCase:       createCase,
		UpdateCase:       updateCase,
		RequestAccess:    requestAccess,
		WithdrawAccess:   withdrawAccess,
		DecideAccess:     decideAccess,
		ViewCase:         viewCase,
		ListCases:        listCases,
		BrowseCases:      browseCases,
		ListCaseRequests: listCaseRequests,
		ListMyRequests:   listMyRequests,
		Logger:           deps.Logger,
	}

	return Module{
		Handler: handler,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters. The store doubles as clock and id generator.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	module := NewModule(Dependencies{
		Cases:       store,
		Grants:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
