package crm

import (
	"github.com/jhoicas/Soporte-api/internal/application/dto"
	"github.com/jhoicas/Soporte-api/internal/domain"
	"github.com/jhoicas/Soporte-api/internal/domain/entity"
	"github.com/jhoicas/Soporte-api/internal/domain/repository"
)

// CustomerUseCase superficie de lectura del cliente canónico. Las escrituras
// pasan siempre por el Resolver o el MergeService; aquí solo se consulta.
type CustomerUseCase struct {
	customers  repository.CustomerRepository
	identities repository.CustomerIdentityRepository
}

// NewCustomerUseCase construye el caso de uso de clientes.
func NewCustomerUseCase(customers repository.CustomerRepository, identities repository.CustomerIdentityRepository) *CustomerUseCase {
	return &CustomerUseCase{customers: customers, identities: identities}
}

// ListCustomers lista clientes paginados.
func (uc *CustomerUseCase) ListCustomers(page dto.PageRequest) ([]dto.CustomerResponse, error) {
	page.DefaultPage()
	customers, err := uc.customers.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, ToCustomerResponse(c))
	}
	return out, nil
}

// GetCustomer devuelve el cliente con todas sus identidades observadas, o ErrNotFound.
func (uc *CustomerUseCase) GetCustomer(id int64) (*dto.CustomerDetailResponse, error) {
	customer, err := uc.customers.GetByID(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	identities, err := uc.identities.ListByCustomer(id)
	if err != nil {
		return nil, err
	}
	out := &dto.CustomerDetailResponse{CustomerResponse: ToCustomerResponse(customer)}
	for _, ident := range identities {
		out.Identities = append(out.Identities, dto.IdentityResponse{
			ID:         ident.ID,
			Provider:   string(ident.Provider),
			ExternalID: ident.ExternalID,
			Email:      ident.Email,
			Phone:      ident.Phone,
			Metadata:   ident.Metadata,
		})
	}
	return out, nil
}

// ToCustomerResponse mapea la entidad al DTO de respuesta.
func ToCustomerResponse(c *entity.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:           c.ID,
		PrimaryEmail: c.PrimaryEmail,
		PrimaryPhone: c.PrimaryPhone,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Company:      c.Company,
		VIP:          c.VIP,
		CreditRisk:   c.CreditRisk,
		ARBalance:    c.ARBalance,
	}
}
