package auth

const (
	RoleEmployee = "Employee"
	RoleManager  = "Manager"
	RoleAdmin    = "Admin"
)

const (
	PermLeaveRead       = "leave.read"
	PermLeaveWrite      = "leave.write"
	PermLeaveApprove    = "leave.approve"
	PermQuotaAssign     = "leave.quota.assign"
	PermHolidayWrite    = "leave.holiday.write"
	PermAttendanceRead  = "attendance.read"
	PermAttendanceWrite = "attendance.write"
	PermReportsRead     = "reports.read"
	PermAuditRead       = "audit.read"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermLeaveRead,
		PermLeaveWrite,
		PermAttendanceRead,
		PermAttendanceWrite,
	},
	RoleManager: {
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermReportsRead,
	},
	RoleAdmin: {
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermQuotaAssign,
		PermHolidayWrite,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermReportsRead,
		PermAuditRead,
	},
}
