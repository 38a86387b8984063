package admin

type CreateStaffRequest struct {
	Username      string `json:"username" binding:"required,min=3,max=64"`
	Email         string `json:"email" binding:"required,email"`
	Name          string `json:"name"`
	Password      string `json:"password" binding:"required,min=8"`
	Role          string `json:"role" binding:"required"`
	StaffRecordID *int64 `json:"staff_record_id"`
}
