package interview

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// Operation names offered to the model, one per stage.
const (
	toolSaveProfession = "save_profession"
	toolAddQuestions   = "add_questions"
	toolSetAnswer      = "set_answer"
	toolSaveResume     = "save_resume"
)

type saveProfessionArgs struct {
	Profession *string `json:"profession" jsonschema:"required,description=Name of profession - e.g. Software Developer"`
}

type addQuestionsArgs struct {
	Questions []string `json:"questions" jsonschema:"required,minItems=5,maxItems=20,description=Questions whose answers are needed to write a resume for the profession - e.g. full name or work experience or list of programming languages studied"`
}

type setAnswerArgs struct {
	Index  *int    `json:"index" jsonschema:"required,minimum=0,description=Index of the survey question being answered"`
	Answer *string `json:"answer" jsonschema:"required,description=Answer to the survey question"`
}

type saveResumeArgs struct {
	Resume *string `json:"resume" jsonschema:"required,description=Full resume body in markdown"`
}

// stageTools maps each stage to the single operation schema it offers.
type stageTools map[Need]*schema.ToolInfo

func newStageTools() (stageTools, error) {
	profession, err := utils.GoStruct2ToolInfo[saveProfessionArgs](
		toolSaveProfession, "Save the profession")
	if err != nil {
		return nil, fmt.Errorf("build %s tool info: %w", toolSaveProfession, err)
	}
	questions, err := utils.GoStruct2ToolInfo[addQuestionsArgs](
		toolAddQuestions, "Set the list of questions for creating a resume for a profession")
	if err != nil {
		return nil, fmt.Errorf("build %s tool info: %w", toolAddQuestions, err)
	}
	answer, err := utils.GoStruct2ToolInfo[setAnswerArgs](
		toolSetAnswer, "Set the answer to the survey question by index")
	if err != nil {
		return nil, fmt.Errorf("build %s tool info: %w", toolSetAnswer, err)
	}
	resume, err := utils.GoStruct2ToolInfo[saveResumeArgs](
		toolSaveResume, "Save the resume")
	if err != nil {
		return nil, fmt.Errorf("build %s tool info: %w", toolSaveResume, err)
	}
	return stageTools{
		NeedProfession: profession,
		NeedQuestions:  questions,
		NeedAnswers:    answer,
		NeedResume:     resume,
	}, nil
}

func decodeProfession(arguments string) (string, error) {
	var args saveProfessionArgs
	if err := sonic.UnmarshalString(arguments, &args); err != nil {
		return "", fmt.Errorf("parse %s arguments: %w", toolSaveProfession, err)
	}
	if args.Profession == nil || *args.Profession == "" {
		return "", fmt.Errorf("%s: required field %q is missing", toolSaveProfession, "profession")
	}
	return *args.Profession, nil
}

func decodeQuestions(arguments string) ([]string, error) {
	var args addQuestionsArgs
	if err := sonic.UnmarshalString(arguments, &args); err != nil {
		return nil, fmt.Errorf("parse %s arguments: %w", toolAddQuestions, err)
	}
	if len(args.Questions) == 0 {
		return nil, fmt.Errorf("%s: required field %q is missing or empty", toolAddQuestions, "questions")
	}
	return args.Questions, nil
}

func decodeAnswer(arguments string) (int, string, error) {
	var args setAnswerArgs
	if err := sonic.UnmarshalString(arguments, &args); err != nil {
		return 0, "", fmt.Errorf("parse %s arguments: %w", toolSetAnswer, err)
	}
	if args.Index == nil {
		return 0, "", fmt.Errorf("%s: required field %q is missing", toolSetAnswer, "index")
	}
	if args.Answer == nil || *args.Answer == "" {
		return 0, "", fmt.Errorf("%s: required field %q is missing or empty", toolSetAnswer, "answer")
	}
	if *args.Index < 0 {
		return 0, "", fmt.Errorf("%s: index %d is negative", toolSetAnswer, *args.Index)
	}
	return *args.Index, *args.Answer, nil
}

func decodeResume(arguments string) (string, error) {
	var args saveResumeArgs
	if err := sonic.UnmarshalString(arguments, &args); err != nil {
		return "", fmt.Errorf("parse %s arguments: %w", toolSaveResume, err)
	}
	if args.Resume == nil || *args.Resume == "" {
		return "", fmt.Errorf("%s: required field %q is missing", toolSaveResume, "resume")
	}
	return *args.Resume, nil
}
