package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	"gymdash/internal/services"
	contextutils "gymdash/internal/utils"

	"github.com/spf13/cobra"
)

// SeedFile is the YAML layout accepted by `adm seed`.
type SeedFile struct {
	Staff   []SeedUser   `yaml:"staff"`
	Tenants []SeedTenant `yaml:"tenants"`
}

// SeedUser is one login. Role is ignored for staff entries.
type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
}

// SeedTenant is a gym with its users and requests.
type SeedTenant struct {
	Name     string        `yaml:"name"`
	Users    []SeedUser    `yaml:"users"`
	Requests []SeedRequest `yaml:"requests"`
}

// SeedRequest is walked from pending to Status through regular transitions,
// performed by the first staff user.
type SeedRequest struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Category    string        `yaml:"category"`
	Priority    string        `yaml:"priority"`
	Requester   string        `yaml:"requester"`
	Status      string        `yaml:"status"`
	Comments    []SeedComment `yaml:"comments"`
}

// SeedComment is posted by Author, a username from the same tenant or the staff list.
type SeedComment struct {
	Author   string `yaml:"author"`
	Content  string `yaml:"content"`
	Internal bool   `yaml:"internal"`
}

// SeedSummary counts what a seed run created.
type SeedSummary struct {
	Tenants  int
	Users    int
	Requests int
	Comments int
}

// SeedCommand returns the seed command
func SeedCommand(userService services.UserServiceInterface, featureRequestService serviceinterfaces.FeatureRequestService, logger *observability.Logger) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load tenants, users and requests from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(path)
			if err != nil {
				return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "failed to open %s: %v", path, err)
			}
			defer f.Close()

			seed, err := ParseSeedFile(f)
			if err != nil {
				return err
			}
			summary, err := ApplySeed(cmd.Context(), seed, userService, featureRequestService, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d tenants, %d users, %d requests, %d comments\n",
				summary.Tenants, summary.Users, summary.Requests, summary.Comments)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "seed.yaml", "seed file")
	return cmd
}

// ParseSeedFile decodes a seed file, rejecting unknown keys.
func ParseSeedFile(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var seed SeedFile
	if err := dec.Decode(&seed); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid seed file: %v", err)
	}
	return &seed, nil
}

// ApplySeed creates everything in seed through the services, so validation and
// lifecycle rules apply exactly as they do over HTTP.
func ApplySeed(ctx context.Context, seed *SeedFile, userService services.UserServiceInterface, featureRequestService serviceinterfaces.FeatureRequestService, logger *observability.Logger) (summary SeedSummary, err error) {
	staff := map[string]*models.User{}
	var firstStaff *models.User
	for _, su := range seed.Staff {
		user, err := userService.CreateUser(ctx, models.CreateUserInput{
			Username: su.Username, Password: su.Password, Email: su.Email, Role: string(models.RoleStaff),
		})
		if err != nil {
			return summary, contextutils.WrapErrorf(err, "staff %q", su.Username)
		}
		staff[user.Username] = user
		if firstStaff == nil {
			firstStaff = user
		}
		summary.Users++
	}

	for _, st := range seed.Tenants {
		tenant, err := userService.CreateTenant(ctx, models.CreateTenantInput{Name: st.Name})
		if err != nil {
			return summary, contextutils.WrapErrorf(err, "tenant %q", st.Name)
		}
		summary.Tenants++

		members := map[string]*models.User{}
		for _, su := range st.Users {
			user, err := userService.CreateUser(ctx, models.CreateUserInput{
				Username: su.Username, Password: su.Password, Email: su.Email, Role: su.Role, TenantID: &tenant.ID,
			})
			if err != nil {
				return summary, contextutils.WrapErrorf(err, "user %q", su.Username)
			}
			members[user.Username] = user
			summary.Users++
		}

		for _, sr := range st.Requests {
			requester, ok := members[sr.Requester]
			if !ok {
				return summary, contextutils.NewValidationError("requester", fmt.Sprintf("%q is not a user of tenant %q", sr.Requester, st.Name))
			}
			created, err := featureRequestService.CreateRequest(ctx, tenant.ID, requester.ID, models.CreateRequestInput{
				Title: sr.Title, Description: sr.Description, Category: sr.Category, Priority: sr.Priority,
			})
			if err != nil {
				if created == nil || !contextutils.IsError(err, contextutils.ErrPartialFailure) {
					return summary, contextutils.WrapErrorf(err, "request %q", sr.Title)
				}
				logger.Warn(ctx, "Seeded request without its submission comment", map[string]interface{}{"title": sr.Title})
			}
			summary.Requests++

			if sr.Status != "" {
				target, err := models.ParseStatus(sr.Status)
				if err != nil {
					return summary, contextutils.NewValidationError("status", fmt.Sprintf("request %q: unknown status %q", sr.Title, sr.Status))
				}
				path := services.TransitionPath(created.Status, target)
				if len(path) > 0 && firstStaff == nil {
					return summary, contextutils.NewValidationError("staff", "a staff user is required to advance request status")
				}
				for _, next := range path {
					if _, err := featureRequestService.Transition(ctx, tenant.ID, created.ID, firstStaff.Actor(), next); err != nil {
						return summary, contextutils.WrapErrorf(err, "request %q to %s", sr.Title, next)
					}
				}
			}

			for _, sc := range sr.Comments {
				author, ok := members[sc.Author]
				if !ok {
					author, ok = staff[sc.Author]
				}
				if !ok {
					return summary, contextutils.NewValidationError("author", fmt.Sprintf("unknown comment author %q", sc.Author))
				}
				if _, err := featureRequestService.AddComment(ctx, tenant.ID, created.ID, author.Actor(), sc.Content, sc.Internal); err != nil {
					return summary, contextutils.WrapErrorf(err, "comment on %q", sr.Title)
				}
				summary.Comments++
			}
		}
	}

	logger.Info(ctx, "Seed applied", map[string]interface{}{
		"tenants":  summary.Tenants,
		"users":    summary.Users,
		"requests": summary.Requests,
		"comments": summary.Comments,
	})
	return summary, nil
}
