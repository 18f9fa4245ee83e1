package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/service"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Manage your Chirp account and session",
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new Chirp account",
	Long:  "Register with your email, verify the emailed code, then choose a password and username",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().Register()
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to Chirp",
	Long:  "Authenticate with email or username and password. Prompts for a code when 2FA is on.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().Login()
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and revoke the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().Logout()
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Display the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().GetMe()
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Email a password reset link",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().ForgotPassword()
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with the emailed reset token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().ResetPassword()
	},
}

var twoFactorCmd = &cobra.Command{
	Use:   "2fa",
	Short: "Two-factor authentication",
}

var enable2faCmd = &cobra.Command{
	Use:   "enable",
	Short: "Pair an authenticator app",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().EnableTwoFactor()
	},
}

var disable2faCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn two-factor authentication off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().DisableTwoFactor()
	},
}

var status2faCmd = &cobra.Command{
	Use:   "status",
	Short: "Show two-factor authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().TwoFactorStatus()
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rotate the saved session tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService().RefreshToken()
	},
}

func init() {
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(meCmd)
	authCmd.AddCommand(forgotPasswordCmd)
	authCmd.AddCommand(resetPasswordCmd)
	authCmd.AddCommand(refreshCmd)
	authCmd.AddCommand(twoFactorCmd)

	twoFactorCmd.AddCommand(status2faCmd)
	twoFactorCmd.AddCommand(enable2faCmd)
	twoFactorCmd.AddCommand(disable2faCmd)
}
