package auth

import (
	"context"
	"slices"
)

const (
	RolePayrollOfficer = "payroll_officer"
	RoleFinanceManager = "finance_manager"
	RoleHospitalAdmin  = "hospital_admin"
	RoleSuperAdmin     = "super_admin"
)

const (
	PermPayrollRead         = "payroll.read"
	PermPayrollRun          = "payroll.run"
	PermPayrollApprove      = "payroll.approve"
	PermPayrollPay          = "payroll.pay"
	PermPayslipRead         = "payroll.payslip.read"
	PermSubscriptionRead    = "subscription.read"
	PermSubscriptionRequest = "subscription.request"
	PermSubscriptionManage  = "subscription.manage"
	PermSubscriptionBilling = "subscription.billing"
	PermAuditRead           = "audit.read"
)

var DefaultPermissions = []string{
	PermPayrollRead,
	PermPayrollRun,
	PermPayrollApprove,
	PermPayrollPay,
	PermPayslipRead,
	PermSubscriptionRead,
	PermSubscriptionRequest,
	PermSubscriptionManage,
	PermSubscriptionBilling,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RolePayrollOfficer: {
		PermPayrollRead,
		PermPayrollRun,
		PermPayslipRead,
	},
	RoleFinanceManager: {
		PermPayrollRead,
		PermPayrollApprove,
		PermPayrollPay,
		PermPayslipRead,
		PermSubscriptionRead,
		PermSubscriptionBilling,
		PermAuditRead,
	},
	RoleHospitalAdmin: {
		PermPayrollRead,
		PermSubscriptionRead,
		PermSubscriptionRequest,
	},
	RoleSuperAdmin: {
		PermPayrollRead,
		PermPayslipRead,
		PermSubscriptionRead,
		PermSubscriptionRequest,
		PermSubscriptionManage,
		PermSubscriptionBilling,
		PermAuditRead,
	},
}

// StaticPermissions answers permission checks from RolePermissions keyed by role name.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return slices.Contains(RolePermissions[role], permission), nil
}
