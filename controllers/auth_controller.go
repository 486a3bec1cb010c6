package controller

import (
	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"worknest/models"
	"worknest/utils"
)

type RegisterOrganizationRequest struct {
	OrganizationName string `json:"organization_name" validate:"required,max=100"`
	DepartmentName   string `json:"department_name" validate:"required,max=100"`
	Name             string `json:"name" validate:"required,max=100"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=5"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string               `json:"access_token"`
	User         *models.User         `json:"user"`
	Organization *models.Organization `json:"organization,omitempty"`
	Department   *models.Department   `json:"department,omitempty"`
}

type AuthController struct {
	DB      *gorm.DB
	Logger  *logrus.Logger
	Emitter *utils.Emitter
}

func NewAuthController(db *gorm.DB, logger *logrus.Logger, emitter *utils.Emitter) *AuthController {
	return &AuthController{DB: db, Logger: logger, Emitter: emitter}
}

// RegisterOrganization creates the organization, its first department
// and the super-admin account in one transaction. Either all three rows
// persist or none do.
func (ac *AuthController) RegisterOrganization(c *fiber.Ctx) error {
	var req RegisterOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email must be a valid email",
		})
	}

	var existingUser models.User
	if err := ac.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}
	var existingOrg models.Organization
	if err := ac.DB.Where("name = ?", req.OrganizationName).First(&existingOrg).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Organization name already taken",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	var (
		org  models.Organization
		dept models.Department
		user models.User
	)
	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		org = models.Organization{Name: req.OrganizationName}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		user = models.User{
			Email:          req.Email,
			PasswordHash:   string(hashedPassword),
			Name:           req.Name,
			OrganizationID: org.ID,
			Role:           models.RoleSuperAdmin,
			IsActive:       true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		dept = models.Department{
			Name:           req.DepartmentName,
			OrganizationID: org.ID,
			ManagerID:      &user.ID,
		}
		if err := tx.Create(&dept).Error; err != nil {
			return err
		}

		// Make the new department the admin's active one
		return tx.Model(&user).Update("department_id", dept.ID).Error
	})
	if err != nil {
		ac.Logger.WithError(err).Error("organization registration failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create organization",
		})
	}

	accessToken, err := utils.GenerateToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	ac.Emitter.Record(user.ID, models.ActionOrganizationCreated,
		"Organization "+org.Name+" registered", org.ID, &dept.ID, nil)

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		AccessToken:  accessToken,
		User:         &user,
		Organization: &org,
		Department:   &dept,
	})
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := ac.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Account is not active",
		})
	}

	accessToken, err := utils.GenerateToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	resp := AuthResponse{AccessToken: accessToken, User: &user}
	if user.DepartmentID != nil {
		var dept models.Department
		if err := ac.DB.First(&dept, *user.DepartmentID).Error; err == nil {
			resp.Department = &dept
		}
	}

	return c.JSON(resp)
}

// Me returns the current user with their active department resolved.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	resp := fiber.Map{"user": user}
	if user.DepartmentID != nil {
		var dept models.Department
		if err := ac.DB.First(&dept, *user.DepartmentID).Error; err == nil {
			resp["department"] = &dept
		}
	}
	return c.JSON(resp)
}
