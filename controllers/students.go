package controllers

import (
	"github.com/gofiber/fiber/v2"

	"sams_go/middleware"
	"sams_go/services"
	"sams_go/utils"
)

type StudentController struct {
	Service *services.StudentService
}

func NewStudentController(service *services.StudentService) *StudentController {
	return &StudentController{Service: service}
}

// CreateStudent creates a new student with optional batch assignment
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req services.StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.ValidateStruct(&req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	student, err := sc.Service.CreateStudent(&req)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "students", student.Sid, req)
	return utils.SuccessStatus(c, fiber.StatusCreated, "Student created successfully", student)
}

// GetStudent returns a specific student by ID
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid student ID")
	}

	student, err := sc.Service.GetStudentByID(id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Student retrieved successfully", student)
}

// GetStudents returns all students
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	students, err := sc.Service.GetAllStudents()
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Students retrieved successfully", students)
}

// UpdateStudent updates student details, including batch transfer
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid student ID")
	}

	var req services.StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.ValidateStruct(&req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	student, err := sc.Service.UpdateStudent(id, &req)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "students", id, req)
	return utils.Success(c, "Student updated successfully", student)
}

// DeleteStudent removes a student
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid student ID")
	}

	if err := sc.Service.DeleteStudent(id); err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "DELETE", "students", id, nil)
	return utils.Success(c, "Student deleted successfully", nil)
}

// CheckIn opens the student's attendance window
func (sc *StudentController) CheckIn(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid student ID")
	}

	student, err := sc.Service.CheckIn(id)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "students", id, fiber.Map{"action": "checkin"})
	return utils.Success(c, "Student checked in successfully", student)
}

// CheckOut closes the student's attendance window
func (sc *StudentController) CheckOut(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid student ID")
	}

	student, err := sc.Service.CheckOut(id)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "students", id, fiber.Map{"action": "checkout"})
	return utils.Success(c, "Student checked out successfully", student)
}

// SearchStudents searches students by name
func (sc *StudentController) SearchStudents(c *fiber.Ctx) error {
	name := c.Query("name")
	students, err := sc.Service.SearchByName(name)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Search completed successfully", students)
}

// GetCheckedIn returns students with an open attendance window
func (sc *StudentController) GetCheckedIn(c *fiber.Ctx) error {
	students, err := sc.Service.GetCurrentlyCheckedIn()
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Checked-in students retrieved successfully", students)
}

// GetPresentToday returns students whose check-in falls on the current day
func (sc *StudentController) GetPresentToday(c *fiber.Ctx) error {
	students, err := sc.Service.GetPresentToday()
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Students present today retrieved successfully", students)
}

// GetStudentsByBatch returns a batch's roster
func (sc *StudentController) GetStudentsByBatch(c *fiber.Ctx) error {
	batchID, err := parseID(c, "batchId")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid batch ID")
	}

	students, err := sc.Service.GetStudentsByBatch(batchID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Students retrieved successfully", students)
}

// GetAttendanceSummary returns the student's attendance statistics
func (sc *StudentController) GetAttendanceSummary(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid student ID")
	}

	summary, err := sc.Service.GetAttendanceSummary(id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, "Attendance summary generated successfully", summary)
}
