package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/hourglass/internal/prefs"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change the local user profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the profile",
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change nickname or avatar",
	RunE:  runProfileSet,
}

var backgroundCmd = &cobra.Command{
	Use:   "background",
	Short: "Manage the dashboard background",
}

var backgroundSetCmd = &cobra.Command{
	Use:   "set [preset-or-value]",
	Short: "Use a preset by name, a CSS value, or an image file",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackgroundSet,
}

var backgroundClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Return to the default background",
	RunE:  runBackgroundClear,
}

var backgroundPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in backgrounds",
	RunE:  runBackgroundPresets,
}

var (
	profileNickname string
	profileAvatar   string
)

func init() {
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	profileSetCmd.Flags().StringVar(&profileNickname, "nickname", "", "Display name (blank resets to the email name)")
	profileSetCmd.Flags().StringVar(&profileAvatar, "avatar", "", "Avatar reference")

	backgroundCmd.AddCommand(backgroundSetCmd, backgroundClearCmd, backgroundPresetsCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	p, err := env.prefs.LoadProfile(cfg.User.ID, cfg.User.Email)
	if err != nil {
		return err
	}
	fmt.Printf("User:      %s\n", cfg.User.ID)
	if p.Email != "" {
		fmt.Printf("Email:     %s\n", p.Email)
	}
	fmt.Printf("Nickname:  %s\n", p.Nickname)
	if p.Avatar != "" {
		fmt.Printf("Avatar:    %s\n", truncate(p.Avatar, 60))
	}
	bg, ok, err := env.prefs.Background()
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("Background: %s\n", describeBackground(bg))
	}
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	current, err := env.prefs.LoadProfile(cfg.User.ID, cfg.User.Email)
	if err != nil {
		return err
	}
	nickname := current.Nickname
	if cmd.Flags().Changed("nickname") {
		nickname = profileNickname
	}
	p, err := env.prefs.SaveProfile(cfg.User.ID, cfg.User.Email, nickname, profileAvatar)
	if err != nil {
		return err
	}
	fmt.Printf("Profile saved: %s\n", p.Nickname)
	return nil
}

func runBackgroundSet(cmd *cobra.Command, args []string) error {
	value := args[0]
	if preset, ok := prefs.FindPreset(value); ok {
		value = preset.Value
	} else if data, err := os.ReadFile(value); err == nil {
		value = prefs.ImageDataURL(value, data)
	}

	env, err := openLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	err = env.prefs.SetBackground(value)
	if errors.Is(err, prefs.ErrBackgroundTooLarge) {
		return fmt.Errorf("%w: choose an image under %d MiB", err, prefs.MaxImageBackgroundBytes>>20)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Background set: %s\n", describeBackground(value))
	return nil
}

func runBackgroundClear(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.prefs.ClearBackground(); err != nil {
		return err
	}
	fmt.Println("Background reset to default")
	return nil
}

func runBackgroundPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tACCENT\tVALUE")
	for _, p := range prefs.Presets {
		value := p.Value
		if value == "" {
			value = "(none)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Accent, truncate(value, 60))
	}
	return w.Flush()
}

func describeBackground(v string) string {
	for _, p := range prefs.Presets {
		if p.Value == v && v != "" {
			return p.Name
		}
	}
	if strings.Contains(v, "data:image") {
		return fmt.Sprintf("custom image (%d KiB)", len(v)>>10)
	}
	return truncate(v, 60)
}
