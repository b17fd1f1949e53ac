package settings

import "time"

// Settings is the single system-wide configuration row.
type Settings struct {
	DashboardName          string
	ProjectAddress         string
	LogoRef                string
	FaviconRef             string
	PrimaryColor           string
	SecondaryColor         string
	Timezone               string
	DateFormat             string
	Language               string
	RegistrationEnabled    bool
	EmailVerificationNeeds bool
	MaintenanceMode        bool
	MaintenanceMessage     string
	UpdatedAt              time.Time
}

// Defaults returns the factory configuration.
func Defaults() Settings {
	return Settings{
		DashboardName:       "E-Residence",
		PrimaryColor:        "#1d4ed8",
		SecondaryColor:      "#64748b",
		Timezone:            "Asia/Jakarta",
		DateFormat:          "DD/MM/YYYY",
		Language:            "id",
		RegistrationEnabled: true,
		MaintenanceMessage:  "Sistem sedang dalam pemeliharaan. Silakan coba beberapa saat lagi.",
	}
}
