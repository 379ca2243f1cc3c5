package classes

import (
	"net/http"

	"membership-app/database"
	"membership-app/internal/domain/classes"

	"github.com/gin-gonic/gin"
)

type classInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Trainer     string `json:"trainer" binding:"required"`
	Weekday     *int   `json:"weekday" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	DurationMin int    `json:"duration_min" binding:"required"`
	Capacity    int    `json:"capacity" binding:"required"`
	Active      *bool  `json:"active"`
}

// GET /classes — public weekly schedule
func ListClasses(c *gin.Context) {
	var list []classes.GymClass
	err := database.DB.
		Where("active = ?", true).
		Order("weekday ASC, start_time ASC").
		Find(&list).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load classes"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /admin/classes
func CreateClass(c *gin.Context) {
	var input classInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *input.Weekday < 0 || *input.Weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Weekday must be between 0 (Sunday) and 6 (Saturday)"})
		return
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	class := classes.GymClass{
		Name:        input.Name,
		Description: input.Description,
		Trainer:     input.Trainer,
		Weekday:     *input.Weekday,
		StartTime:   input.StartTime,
		DurationMin: input.DurationMin,
		Capacity:    input.Capacity,
		Active:      active,
	}
	if err := database.DB.Create(&class).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create class"})
		return
	}
	c.JSON(http.StatusCreated, class)
}

// PUT /admin/classes/:id
func UpdateClass(c *gin.Context) {
	id := c.Param("id")

	var class classes.GymClass
	if err := database.DB.First(&class, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}

	var input classInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *input.Weekday < 0 || *input.Weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Weekday must be between 0 (Sunday) and 6 (Saturday)"})
		return
	}

	class.Name = input.Name
	class.Description = input.Description
	class.Trainer = input.Trainer
	class.Weekday = *input.Weekday
	class.StartTime = input.StartTime
	class.DurationMin = input.DurationMin
	class.Capacity = input.Capacity
	if input.Active != nil {
		class.Active = *input.Active
	}

	if err := database.DB.Save(&class).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update class"})
		return
	}
	c.JSON(http.StatusOK, class)
}

// DELETE /admin/classes/:id
func DeleteClass(c *gin.Context) {
	id := c.Param("id")

	res := database.DB.Delete(&classes.GymClass{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete class"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class deleted"})
}
