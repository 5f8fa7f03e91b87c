package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sub07/powerkey/internal/logger"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Setup permissions for global key capture and simulation",
	Long: `Setup permissions for powerkey's input access.
This command:
- Creates a dedicated 'powerkey' group for uinput access (key simulation)
- Adds the user to the 'input' group for raw key capture via evdev
- Configures a udev rule for secure uinput access`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	logger.Info("powerkey permissions setup")
	logger.Info("===========================")
	logger.Info("")

	if os.Geteuid() == 0 {
		logger.Info("Please run this command as a normal user (not root)")
		logger.Info("The setup will use sudo when needed")
		return fmt.Errorf("cannot run setup as root")
	}

	proceed := true
	if err := huh.NewConfirm().
		Title("This will use sudo to load uinput, create a udev rule, and add you to the input/powerkey groups. Continue?").
		Affirmative("Yes").
		Negative("No").
		Value(&proceed).
		Run(); err != nil {
		return err
	}
	if !proceed {
		logger.Info("Setup cancelled")
		return nil
	}

	if err := checkAndLoadUinput(); err != nil {
		return err
	}
	if err := checkUinputDevice(); err != nil {
		return err
	}
	if err := createSecureUinputAccess(); err != nil {
		return err
	}
	if err := setupInputCapture(); err != nil {
		return err
	}

	return testAccess()
}

func checkAndLoadUinput() error {
	cmd := exec.Command("lsmod")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to check loaded modules: %w", err)
	}

	if strings.Contains(string(output), "uinput") {
		logger.Info("✓ uinput module already loaded")
		return nil
	}

	logger.Info("Loading uinput module...")
	cmd = exec.Command("sudo", "modprobe", "uinput")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to load uinput module: %w", err)
	}

	logger.Info("✓ uinput module loaded")
	return nil
}

func checkUinputDevice() error {
	info, err := os.Stat("/dev/uinput")
	if err != nil {
		if os.IsNotExist(err) {
			logger.Error("✗ /dev/uinput not found")
			return fmt.Errorf("/dev/uinput not found")
		}
		return fmt.Errorf("failed to check /dev/uinput: %w", err)
	}

	if info.Mode()&os.ModeCharDevice == 0 {
		logger.Error("✗ /dev/uinput is not a character device")
		return fmt.Errorf("/dev/uinput is not a character device")
	}

	logger.Info("✓ /dev/uinput exists")
	return nil
}

func setupInputCapture() error {
	logger.Info("")
	logger.Info("Setting up raw input capture permissions...")

	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	cmd := exec.Command("groups", currentUser.Username)
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to check user groups: %w", err)
	}

	if strings.Contains(string(output), "input") {
		logger.Infof("✓ User %s is already in input group", currentUser.Username)
		return nil
	}

	logger.Infof("Adding %s to input group for raw key capture...", currentUser.Username)
	cmd = exec.Command("sudo", "usermod", "-a", "-G", "input", currentUser.Username)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to add user to input group: %w", err)
	}
	logger.Infof("✓ User %s added to input group", currentUser.Username)
	return nil
}

func createSecureUinputAccess() error {
	logger.Info("")
	logger.Info("Setting up secure uinput access...")

	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	if err := ensurePowerkeyGroup(); err != nil {
		return fmt.Errorf("failed to set up powerkey group: %w", err)
	}

	logger.Infof("Adding %s to powerkey group...", currentUser.Username)
	cmd := exec.Command("sudo", "usermod", "-a", "-G", "powerkey", currentUser.Username)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to add user to powerkey group: %w", err)
	}

	logger.Info("Creating secure udev rule...")
	rule := `KERNEL=="uinput", GROUP="powerkey", MODE="0660", TAG+="uaccess"`

	cmd = exec.Command("sudo", "tee", "/etc/udev/rules.d/99-powerkey-uinput.rules")
	cmd.Stdin = strings.NewReader(rule)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create udev rule: %w", err)
	}

	cmd = exec.Command("sudo", "udevadm", "control", "--reload-rules")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to reload udev rules: %w", err)
	}

	cmd = exec.Command("sudo", "udevadm", "trigger")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to trigger udev: %w", err)
	}

	logger.Info("✓ Secure udev rule created at /etc/udev/rules.d/99-powerkey-uinput.rules")
	logger.Infof("✓ User %s added to powerkey group", currentUser.Username)
	return nil
}

func ensurePowerkeyGroup() error {
	cmd := exec.Command("getent", "group", "powerkey")
	if err := cmd.Run(); err == nil {
		logger.Info("✓ powerkey group already exists")
		return nil
	}

	logger.Info("Creating powerkey group...")
	cmd = exec.Command("sudo", "groupadd", "powerkey")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create powerkey group: %w", err)
	}

	logger.Info("✓ powerkey group created")
	return nil
}

func testAccess() error {
	logger.Info("")
	logger.Info("Testing access...")

	uinputOk := true
	if file, err := os.OpenFile("/dev/uinput", os.O_WRONLY, 0); err != nil {
		if os.IsPermission(err) {
			logger.Error("✗ No write access to /dev/uinput")
			uinputOk = false
		} else {
			return fmt.Errorf("failed to test uinput access: %w", err)
		}
	} else {
		file.Close()
		logger.Info("✓ You have write access to /dev/uinput")
	}

	inputOk := true
	var testDevice string
	for _, device := range []string{"/dev/input/event0", "/dev/input/event1", "/dev/input/event2"} {
		if _, err := os.Stat(device); err == nil {
			testDevice = device
			break
		}
	}
	if testDevice != "" {
		if file, err := os.OpenFile(testDevice, os.O_RDONLY, 0); err != nil {
			if os.IsPermission(err) {
				logger.Error("✗ No read access to input devices")
				inputOk = false
			}
		} else {
			file.Close()
			logger.Info("✓ You have read access to input devices")
		}
	}

	logger.Info("")
	if !uinputOk || !inputOk {
		logger.Info("IMPORTANT: log out and back in for the group changes to take effect.")
	} else {
		logger.Info("Setup complete! You can now run: powerkey run")
	}

	return nil
}

// VerifySetup checks whether the uinput/input permissions runSetup
// configures are in place, returning a descriptive error naming the
// missing piece if not.
func VerifySetup() error {
	cmd := exec.Command("lsmod")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("uinput module check failed - please run 'powerkey setup'")
	}
	if !strings.Contains(string(output), "uinput") {
		return fmt.Errorf("uinput module not loaded - please run 'powerkey setup'")
	}

	if _, err := os.Stat("/dev/uinput"); os.IsNotExist(err) {
		return fmt.Errorf("/dev/uinput not found - please run 'powerkey setup'")
	}

	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	cmd = exec.Command("groups", currentUser.Username)
	output, err = cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to check user groups: %w", err)
	}

	hasPowerkeyGroup := strings.Contains(string(output), "powerkey")
	hasInputGroup := strings.Contains(string(output), "input")
	if !hasPowerkeyGroup && !hasInputGroup {
		return fmt.Errorf("user %s is not in powerkey or input groups - please run 'powerkey setup' and log out/in", currentUser.Username)
	}

	return nil
}
