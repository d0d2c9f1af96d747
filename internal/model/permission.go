package model

// Permission is an opaque capability label consulted by route guards.
type Permission string

const (
	// ─── Self-service ──────────────────────────────────────────────────
	PermissionReadOwnData          Permission = "read_own_data"
	PermissionRegisterForExams     Permission = "register_for_exams"
	PermissionViewOwnResults       Permission = "view_own_results"
	PermissionReceiveNotifications Permission = "receive_notifications"
	PermissionUpdateOwnProfile     Permission = "update_own_profile"

	// ─── Institution ───────────────────────────────────────────────────
	PermissionManageInstitutionStudents      Permission = "manage_institution_students"
	PermissionUploadStudentDocuments         Permission = "upload_student_documents"
	PermissionViewInstitutionData            Permission = "view_institution_data"
	PermissionRegisterStudents               Permission = "register_students"
	PermissionViewInstitutionResults         Permission = "view_institution_results"
	PermissionManageInstitutionRegistrations Permission = "manage_institution_registrations"
	PermissionEnrollStudents                 Permission = "enroll_students"
	PermissionGenerateInstitutionReports     Permission = "generate_institution_reports"

	// ─── Ministry ──────────────────────────────────────────────────────
	PermissionReadAllData          Permission = "read_all_data"
	PermissionManageInstitutions   Permission = "manage_institutions"
	PermissionManageExams          Permission = "manage_exams"
	PermissionPublishResults       Permission = "publish_results"
	PermissionViewSystemAnalytics  Permission = "view_system_analytics"
	PermissionManageUsers          Permission = "manage_users"
	PermissionCreateInstitutions   Permission = "create_institutions"
	PermissionDeleteInstitutions   Permission = "delete_institutions"
	PermissionVerifyInstitutions   Permission = "verify_institutions"
	PermissionDeleteExams          Permission = "delete_exams"
	PermissionSystemBackup         Permission = "system_backup"
	PermissionSystemRecovery       Permission = "system_recovery"
	PermissionManageSystemSettings Permission = "manage_system_settings"

	// ─── Examination office ────────────────────────────────────────────
	PermissionVerifyRegistrations Permission = "verify_registrations"
	PermissionManageExamSessions  Permission = "manage_exam_sessions"
	PermissionScheduleExams       Permission = "schedule_exams"

	// ─── Shared ────────────────────────────────────────────────────────
	PermissionViewPublicData Permission = "view_public_data"
	PermissionChangePassword Permission = "change_password"
	PermissionSearchData     Permission = "search_data"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionReadOwnData,
	PermissionRegisterForExams,
	PermissionViewOwnResults,
	PermissionReceiveNotifications,
	PermissionUpdateOwnProfile,
	PermissionManageInstitutionStudents,
	PermissionUploadStudentDocuments,
	PermissionViewInstitutionData,
	PermissionRegisterStudents,
	PermissionViewInstitutionResults,
	PermissionManageInstitutionRegistrations,
	PermissionEnrollStudents,
	PermissionGenerateInstitutionReports,
	PermissionReadAllData,
	PermissionManageInstitutions,
	PermissionManageExams,
	PermissionPublishResults,
	PermissionViewSystemAnalytics,
	PermissionManageUsers,
	PermissionCreateInstitutions,
	PermissionDeleteInstitutions,
	PermissionVerifyInstitutions,
	PermissionDeleteExams,
	PermissionSystemBackup,
	PermissionSystemRecovery,
	PermissionManageSystemSettings,
	PermissionVerifyRegistrations,
	PermissionManageExamSessions,
	PermissionScheduleExams,
	PermissionViewPublicData,
	PermissionChangePassword,
	PermissionSearchData,
}
