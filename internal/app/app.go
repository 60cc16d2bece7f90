// Package app resolves a variant of the product line into a wired set of feature services.
package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/config"
	"github.com/OEduardoGL/lps-ecommerce/internal/delivery"
	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
	"github.com/OEduardoGL/lps-ecommerce/internal/repository"
	"github.com/OEduardoGL/lps-ecommerce/internal/usecase"
)

const (
	FeatureCatalog        = "catalog"
	FeatureUsers          = "users"
	FeatureOrders         = "orders"
	FeatureRecommendation = "recommendation"
)

type RouteRegistrar interface {
	RegisterRoutes(router gin.IRouter)
}

// Service is one active feature, served on its own port.
type Service struct {
	Name   string
	Port   int
	Routes RouteRegistrar
}

type Options struct {
	Manifest        *config.Manifest
	Variant         string
	Stores          *repository.Stores
	DispatchWorkers int
	Logger          *logrus.Logger
}

type Application struct {
	manifest    *config.Manifest
	variantName string
	variant     config.Variant
	active      map[string]bool
	stores      *repository.Stores
	workers     int
	log         *logrus.Logger

	built    map[string]bool
	building map[string]bool
	handlers map[string]RouteRegistrar

	catalog        domain.CatalogUseCase
	users          domain.UserUseCase
	orders         domain.OrderUseCase
	recommendation domain.RecommendationUseCase
	dispatcher     *usecase.PurchaseDispatcher
}

// New resolves the variant once: every active feature and whatever it requires is built,
// and optional dependencies are wired only when they are active too.
func New(opts Options) (*Application, error) {
	if opts.Manifest == nil || opts.Stores == nil || opts.Logger == nil {
		return nil, fmt.Errorf("app: manifest, stores and logger are required")
	}
	variant, err := opts.Manifest.Variant(opts.Variant)
	if err != nil {
		return nil, err
	}

	a := &Application{
		manifest:    opts.Manifest,
		variantName: opts.Variant,
		variant:     variant,
		active:      map[string]bool{},
		stores:      opts.Stores,
		workers:     opts.DispatchWorkers,
		log:         opts.Logger,
		built:       map[string]bool{},
		building:    map[string]bool{},
		handlers:    map[string]RouteRegistrar{},
	}
	for _, feature := range variant.Features {
		a.active[feature] = true
	}

	for _, feature := range variant.Features {
		if err := a.build(feature); err != nil {
			a.Close(time.Second)
			return nil, err
		}
	}
	a.log.Infof("App: variant '%s' resolved -> %s (features: %v, built: %v)", opts.Variant, variant.Description, variant.Features, a.Built())
	return a, nil
}

func (a *Application) build(name string) error {
	if a.built[name] {
		return nil
	}
	if a.building[name] {
		return fmt.Errorf("app: dependency cycle at feature %q", name)
	}
	feature, ok := a.manifest.Features[name]
	if !ok {
		return fmt.Errorf("app: unknown feature %q", name)
	}
	a.building[name] = true
	defer delete(a.building, name)

	for _, dep := range feature.Requires {
		if err := a.build(dep); err != nil {
			return fmt.Errorf("app: feature %q requires %q: %w", name, dep, err)
		}
	}
	for _, dep := range feature.Optional {
		if a.active[dep] {
			if err := a.build(dep); err != nil {
				return fmt.Errorf("app: optional dependency %q of %q: %w", dep, name, err)
			}
		}
	}

	if err := a.construct(name); err != nil {
		return err
	}
	a.built[name] = true
	return nil
}

func (a *Application) construct(name string) error {
	switch name {
	case FeatureCatalog:
		a.catalog = usecase.NewCatalogUseCase(a.stores.Products, a.log)
		a.handlers[name] = delivery.NewProductHandler(a.catalog, a.log)

	case FeatureUsers:
		a.users = usecase.NewUserUseCase(a.stores.Users, a.log)
		a.handlers[name] = delivery.NewUserHandler(a.users, a.log)

	case FeatureRecommendation:
		var preferences domain.UserRepository
		if a.built[FeatureUsers] {
			preferences = a.stores.Users
		}
		a.recommendation = usecase.NewRecommendationUseCase(a.stores.Products, preferences, a.stores.Affinity, a.log)
		a.handlers[name] = delivery.NewRecommendationHandler(a.recommendation, a.log)

	case FeatureOrders:
		var notifier domain.PurchaseNotifier
		if a.recommendation != nil && a.optional(FeatureOrders, FeatureRecommendation) {
			dispatcher, err := usecase.NewPurchaseDispatcher(a.recommendation, a.workers, a.log)
			if err != nil {
				return fmt.Errorf("app: %w", err)
			}
			a.dispatcher = dispatcher
			notifier = dispatcher
			a.log.Info("App: orders will register purchases with the recommendation engine")
		}
		a.orders = usecase.NewOrderUseCase(a.stores.Orders, a.stores.Products, notifier, a.log)
		a.handlers[name] = delivery.NewOrderHandler(a.orders, a.log)

	default:
		return fmt.Errorf("app: feature %q has no implementation", name)
	}
	a.log.Debugf("App: built feature %s", name)
	return nil
}

func (a *Application) optional(feature, dep string) bool {
	for _, name := range a.manifest.Features[feature].Optional {
		if name == dep {
			return a.active[dep]
		}
	}
	return false
}

// Services lists the variant's features in manifest order. Features that were built
// only to satisfy a dependency are not served.
func (a *Application) Services() []Service {
	services := make([]Service, 0, len(a.variant.Features))
	for _, name := range a.variant.Features {
		services = append(services, Service{
			Name:   name,
			Port:   a.manifest.Features[name].Port,
			Routes: a.handlers[name],
		})
	}
	return services
}

func (a *Application) Variant() string { return a.variantName }

// Built lists every instantiated feature, sorted.
func (a *Application) Built() []string {
	names := make([]string, 0, len(a.built))
	for name := range a.built {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Application) Catalog() domain.CatalogUseCase               { return a.catalog }
func (a *Application) Users() domain.UserUseCase                    { return a.users }
func (a *Application) Orders() domain.OrderUseCase                  { return a.orders }
func (a *Application) Recommendation() domain.RecommendationUseCase { return a.recommendation }

// Close drains pending purchase registrations.
func (a *Application) Close(timeout time.Duration) {
	if a.dispatcher == nil {
		return
	}
	if !a.dispatcher.Drain(timeout) {
		a.log.Warn("App: shut down with purchase registrations still pending")
	}
}
