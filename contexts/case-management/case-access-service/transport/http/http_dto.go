package httptransport

type CaseDTO struct {
	CaseID      string `json:"case_id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CreateCaseRequest struct {
	OwnerID     string `json:"owner_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

type CreateCaseResponse struct {
	Case CaseDTO `json:"case"`
}

type UpdateCaseRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Status      *string `json:"status,omitempty"`
}

type UpdateCaseResponse struct {
	Case CaseDTO `json:"case"`
}

type GetCaseResponse struct {
	Case CaseDTO `json:"case"`
}

type ListCasesResponse struct {
	Items []CaseDTO `json:"items"`
}

type AccessGrantDTO struct {
	GrantID     string `json:"grant_id"`
	CaseID      string `json:"case_id"`
	LawyerID    string `json:"lawyer_id"`
	Status      string `json:"status"`
	RequestedAt string `json:"requested_at"`
	DecidedAt   string `json:"decided_at,omitempty"`
	DecidedBy   string `json:"decided_by,omitempty"`
}

type RequestAccessResponse struct {
	Grant AccessGrantDTO `json:"grant"`
}

type WithdrawAccessResponse struct {
	Grant AccessGrantDTO `json:"grant"`
}

type DecideAccessRequest struct {
	Decision string `json:"decision"`
}

type DecideAccessResponse struct {
	Grant AccessGrantDTO `json:"grant"`
}

type ListAccessRequestsResponse struct {
	Items []AccessGrantDTO `json:"items"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
