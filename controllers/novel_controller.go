package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"novel-voice/config"
	"novel-voice/middlewares"
	"novel-voice/models"
	"novel-voice/utils"
)

// GetNovels 小说列表
func GetNovels(c *gin.Context) {
	var novels []models.Novel
	if err := config.DB.Order("id").Find(&novels).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch novels")
		return
	}
	utils.RespondSuccess(c, novels, nil)
}

// GetNovelDetail 小说详情
func GetNovelDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid novel id")
		return
	}
	var novel models.Novel
	if err := config.DB.First(&novel, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, "Novel not found")
		return
	}
	utils.RespondSuccess(c, novel, nil)
}

type chapterItem struct {
	ID        int64  `json:"id"`
	NovelID   int64  `json:"novel_id"`
	Title     string `json:"title"`
	ChapterNo int    `json:"chapter_no"`
}

// GetChapters 章节目录，不带正文
func GetChapters(c *gin.Context) {
	novelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid novel id")
		return
	}
	var chapters []models.Chapter
	err = config.DB.Select("id", "novel_id", "title", "chapter_no").
		Where("novel_id = ?", novelID).
		Order("chapter_no").
		Find(&chapters).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch chapters")
		return
	}

	data := lo.Map(chapters, func(ch models.Chapter, _ int) chapterItem {
		return chapterItem{ID: ch.ID, NovelID: ch.NovelID, Title: ch.Title, ChapterNo: ch.ChapterNo}
	})
	utils.RespondSuccess(c, data, nil)
}

// GetChapterContent 章节正文
func GetChapterContent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid chapter id")
		return
	}
	var chapter models.Chapter
	if err := config.DB.First(&chapter, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, "Chapter not found")
		return
	}
	utils.RespondSuccess(c, chapter, nil)
}

// SaveProgress 保存阅读进度，同一用户同一本书只留一条
func SaveProgress(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		utils.RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var input struct {
		NovelID        int64 `json:"novel_id" binding:"required"`
		ChapterID      int64 `json:"chapter_id" binding:"required"`
		ChapterNo      int   `json:"chapter_no"`
		ScrollPosition int   `json:"scroll_position"`
		TTSPosition    int   `json:"tts_position"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	progress := models.ReadingProgress{
		UserID:         user.ID,
		NovelID:        input.NovelID,
		ChapterID:      input.ChapterID,
		ChapterNo:      input.ChapterNo,
		ScrollPosition: input.ScrollPosition,
		TTSPosition:    input.TTSPosition,
		LastReadTime:   time.Now(),
	}

	var existing models.ReadingProgress
	err := config.DB.Where("user_id = ? AND novel_id = ?", user.ID, input.NovelID).First(&existing).Error
	if err == nil {
		progress.ID = existing.ID
		err = config.DB.Save(&progress).Error
	} else {
		err = config.DB.Create(&progress).Error
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to save progress")
		return
	}
	utils.RespondSuccess(c, progress, nil)
}

// GetProgress 某本书的阅读进度
func GetProgress(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		utils.RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}
	novelID, err := strconv.ParseInt(c.Param("novel_id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid novel id")
		return
	}

	var progress models.ReadingProgress
	if err := config.DB.Where("user_id = ? AND novel_id = ?", user.ID, novelID).First(&progress).Error; err != nil {
		utils.RespondSuccess(c, nil, nil) // 没读过不算错误
		return
	}
	utils.RespondSuccess(c, progress, nil)
}

// GetReadingHistory 阅读历史，按最近阅读排序
func GetReadingHistory(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		utils.RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var history []models.ReadingProgress
	err := config.DB.Where("user_id = ?", user.ID).
		Order("last_read_time DESC").
		Find(&history).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch reading history")
		return
	}
	utils.RespondSuccess(c, history, nil)
}
